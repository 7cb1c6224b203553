// Package agent defines the language capabilities an interview session relies on.
//
// Each session owns its own Set so any conversational memory a capability keeps is
// scoped to one candidate.
package agent

import (
	"context"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
)

// Verdict is the judge's classification of a response plus free-form feedback.
type Verdict struct {
	Classification interview.Classification `json:"classification"`
	Feedback       string                   `json:"feedback"`
}

// QuestionPhraser turns a trait's base question into a personal, conversational one.
type QuestionPhraser interface {
	PhraseQuestion(ctx context.Context, candidate, scenario, baseQuestion string) (string, error)
}

// SatisfactionJudge classifies how well a response answers a question for a trait.
type SatisfactionJudge interface {
	JudgeSatisfaction(ctx context.Context, question, response, traitName string) (Verdict, error)
}

// FollowUpDrafter writes the next probing question for the current scenario.
type FollowUpDrafter interface {
	DraftFollowUp(ctx context.Context, candidate string, history []interview.Turn, turnIndex int, insufficient bool) (string, error)
}

// ScenarioScorer scores the full exchange of a scenario against its trait.
type ScenarioScorer interface {
	ScoreScenario(ctx context.Context, history []interview.Turn, t trait.Trait) (float64, error)
}

// Set bundles the four capability handles owned by a single session.
type Set struct {
	Phraser  QuestionPhraser
	Judge    SatisfactionJudge
	FollowUp FollowUpDrafter
	Scorer   ScenarioScorer
}

// Factory binds a fresh Set to a session.
type Factory interface {
	New(ctx context.Context, sessionID string) (Set, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, sessionID string) (Set, error)

// New calls f.
func (f FactoryFunc) New(ctx context.Context, sessionID string) (Set, error) {
	return f(ctx, sessionID)
}
