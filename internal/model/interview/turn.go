package interview

// TurnKind distinguishes the opening question of a scenario from follow-up questions.
type TurnKind string

const (
	TurnScenario TurnKind = "scenario"
	TurnFollowUp TurnKind = "follow-up"
)

// Turn is one question/response exchange within the active scenario.
type Turn struct {
	Kind     TurnKind `json:"kind"`
	Scenario string   `json:"scenario"`
	Question string   `json:"question"`
	Response string   `json:"response"`
	// Index is the position the follow-up was appended at; zero for scenario turns.
	Index int `json:"index,omitempty"`
}

// NewScenarioTurn opens a scenario with its (possibly rephrased) base question.
func NewScenarioTurn(scenario, question string) Turn {
	return Turn{Kind: TurnScenario, Scenario: scenario, Question: question}
}

// NewFollowUpTurn records a follow-up question appended at position index.
func NewFollowUpTurn(scenario string, index int, question string) Turn {
	return Turn{Kind: TurnFollowUp, Scenario: scenario, Question: question, Index: index}
}

// Answered reports whether the candidate has replied to this turn.
func (t Turn) Answered() bool {
	return t.Response != ""
}
