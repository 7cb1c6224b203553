package interview

import "time"

// RecordType tags transcript entries.
type RecordType string

const (
	RecordScenario RecordType = "scenario"
	RecordFollowUp RecordType = "follow-up"
	RecordResponse RecordType = "response"
	RecordScore    RecordType = "score"
)

// Record is one append-only transcript entry. Only the fields relevant to Type are set.
type Record struct {
	Type           RecordType `json:"type"`
	SessionID      string     `json:"sessionId"`
	Candidate      string     `json:"candidate"`
	Trait          string     `json:"trait"`
	TraitIndex     int        `json:"traitIndex"`
	Scenario       string     `json:"scenario,omitempty"`
	Question       string     `json:"question,omitempty"`
	Response       string     `json:"response,omitempty"`
	FollowUpIndex  int        `json:"followUpIndex,omitempty"`
	Classification string     `json:"classification,omitempty"`
	Feedback       string     `json:"feedback,omitempty"`
	Score          *float64   `json:"score,omitempty"`
	RecordedAt     time.Time  `json:"recordedAt"`
}

func baseRecord(kind RecordType, s Session, traitName string) Record {
	return Record{
		Type:       kind,
		SessionID:  s.ID,
		Candidate:  s.CandidateName,
		Trait:      traitName,
		TraitIndex: s.TraitIndex,
		RecordedAt: time.Now().UTC(),
	}
}

// ScenarioRecord logs the opening question of a scenario.
func ScenarioRecord(s Session, traitName string, turn Turn) Record {
	rec := baseRecord(RecordScenario, s, traitName)
	rec.Scenario = turn.Scenario
	rec.Question = turn.Question
	return rec
}

// FollowUpRecord logs a drafted follow-up question.
func FollowUpRecord(s Session, traitName string, turn Turn) Record {
	rec := baseRecord(RecordFollowUp, s, traitName)
	rec.Scenario = turn.Scenario
	rec.Question = turn.Question
	rec.FollowUpIndex = turn.Index
	return rec
}

// ResponseRecord logs the candidate's answer together with the judge's verdict.
func ResponseRecord(s Session, traitName string, turn Turn, classification Classification, feedback string) Record {
	rec := baseRecord(RecordResponse, s, traitName)
	rec.Scenario = turn.Scenario
	rec.Question = turn.Question
	rec.Response = turn.Response
	rec.Classification = string(classification)
	rec.Feedback = feedback
	return rec
}

// ScoreRecord logs the terminal score of a satisfied scenario.
func ScoreRecord(s Session, traitName string, score float64) Record {
	rec := baseRecord(RecordScore, s, traitName)
	rec.Score = &score
	return rec
}
