package trait

// Trait is one behavioral competency assessed by a single interview scenario.
type Trait struct {
	Name         string `json:"name" yaml:"name" toml:"name"`
	Scenario     string `json:"scenario" yaml:"scenario" toml:"scenario"`
	BaseQuestion string `json:"baseQuestion" yaml:"base_question" toml:"base_question"`
}

// Seed provides the default trait catalog used when no catalog file is configured.
func Seed() []Trait {
	return []Trait{
		{
			Name:         "Integrity",
			Scenario:     "You discover that a teammate has been reporting slightly better numbers than the team actually achieved, and the quarterly review is tomorrow.",
			BaseQuestion: "What would you do, and how would you approach the conversation with your teammate?",
		},
		{
			Name:         "Accountability",
			Scenario:     "A release you owned shipped with a defect that caused a customer-facing outage over the weekend.",
			BaseQuestion: "Walk me through how you would handle the situation on Monday morning.",
		},
		{
			Name:         "Collaboration",
			Scenario:     "Two senior colleagues disagree strongly about the design of a feature you both depend on, and the deadline is two weeks away.",
			BaseQuestion: "How would you help the group reach a decision?",
		},
		{
			Name:         "Adaptability",
			Scenario:     "Halfway through a project, leadership changes the priorities and half of your planned work is no longer needed.",
			BaseQuestion: "How would you respond, and what would you do first?",
		},
	}
}
