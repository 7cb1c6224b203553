package interview

import "time"

// Session captures one candidate's in-progress interview.
type Session struct {
	ID               string    `json:"id"`
	CandidateName    string    `json:"candidateName"`
	TraitIndex       int       `json:"traitIndex"`
	Turns            []Turn    `json:"turns"`
	TranscriptTarget string    `json:"transcriptTarget"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share the turn slice with the registry.
func (s Session) Clone() Session {
	s.Turns = append([]Turn(nil), s.Turns...)
	return s
}

// CurrentTurn returns the most recent turn of the active scenario.
func (s Session) CurrentTurn() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}
