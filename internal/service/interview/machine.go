package interview

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	"github.com/zhouzirui/trait-interview/backend/internal/service/agent"
)

// Follow-up bounds. They are deliberately separate values.
const (
	// insufficientTurnLimit is the number of prior turns after which an insufficient answer ends the scenario.
	insufficientTurnLimit = 2
	// unsatisfiedTurnLimit is the total turn count, including the new follow-up, that ends the scenario.
	unsatisfiedTurnLimit = 3
)

// Reply messages.
const (
	MessageAdvance             = "advance"
	MessageAdvanceInsufficient = "advance-insufficient"
	MessageAdvanceUnsatisfied  = "advance-unsatisfied"
	MessageFollowUp            = "follow-up"
	MessageCompleted           = "completed"
)

const (
	capAgents     = "agent_factory"
	capPhrase     = "phrase_question"
	capJudge      = "judge_satisfaction"
	capFollowUp   = "draft_follow_up"
	capScore      = "score_scenario"
	capTranscribe = "transcribe"
)

type StartRequest struct {
	SessionID     string `json:"sessionId"`
	CandidateName string `json:"candidateName"`
}

type StartResult struct {
	SessionID string `json:"sessionId"`
	Question  string `json:"question"`
}

// Reply is the outcome of one candidate response.
type Reply struct {
	SessionID string   `json:"sessionId,omitempty"`
	Message   string   `json:"message"`
	Question  string   `json:"question,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	// Classification is the judge's verdict on the answer that produced this reply.
	Classification interview.Classification `json:"classification,omitempty"`
	// TranscriptWarning is set when the transition committed but a transcript append failed.
	TranscriptWarning string `json:"transcriptWarning,omitempty"`
}

// SessionView is the read model served to clients.
type SessionView struct {
	SessionID     string           `json:"sessionId"`
	CandidateName string           `json:"candidateName"`
	TraitIndex    int              `json:"traitIndex"`
	TraitCount    int              `json:"traitCount"`
	Trait         string           `json:"trait"`
	Question      string           `json:"question"`
	Turns         []interview.Turn `json:"turns"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Start resumes the session named by req.SessionID, or creates one for req.CandidateName.
// A resumed session returns its outstanding question without any state change.
func (s *Service) Start(ctx context.Context, req StartRequest) (StartResult, error) {
	if id := strings.TrimSpace(req.SessionID); id != "" {
		e, err := s.acquire(id)
		if err != nil {
			return StartResult{}, err
		}
		defer e.mu.Unlock()

		turn, _ := e.session.CurrentTurn()
		return StartResult{SessionID: id, Question: turn.Question}, nil
	}

	if strings.TrimSpace(req.CandidateName) == "" {
		return StartResult{}, validationError("sessionId or candidateName is required")
	}

	session, err := s.Create(ctx, req.CandidateName)
	if err != nil {
		return StartResult{}, err
	}
	turn, _ := session.CurrentTurn()
	return StartResult{SessionID: session.ID, Question: turn.Question}, nil
}

// Session returns the status view of a registered session.
func (s *Service) Session(ctx context.Context, id string) (SessionView, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return SessionView{}, err
	}

	t, _ := s.catalog.At(session.TraitIndex)
	turn, _ := session.CurrentTurn()
	return SessionView{
		SessionID:     session.ID,
		CandidateName: session.CandidateName,
		TraitIndex:    session.TraitIndex,
		TraitCount:    s.catalog.Len(),
		Trait:         t.Name,
		Question:      turn.Question,
		Turns:         session.Turns,
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
	}, nil
}

// Submit applies one candidate response to the session.
func (s *Service) Submit(ctx context.Context, sessionID, responseText string) (Reply, error) {
	text := strings.TrimSpace(responseText)
	if text == "" {
		return Reply{}, validationError("response text is required")
	}

	e, err := s.acquire(strings.TrimSpace(sessionID))
	if err != nil {
		return Reply{}, err
	}
	defer e.mu.Unlock()

	return s.transition(ctx, e, text)
}

// plan is everything a transition needs, gathered before any mutation.
type plan struct {
	verdict  agent.Verdict
	score    *float64
	followUp *interview.Turn
	advance  bool
	next     *interview.Turn
	message  string
}

// transition must be called with e.mu held. All capability calls happen before the session
// is touched, so a failure leaves it exactly as it was.
func (s *Service) transition(ctx context.Context, e *entry, response string) (Reply, error) {
	current := e.session
	t, ok := s.catalog.At(current.TraitIndex)
	if !ok {
		return Reply{}, notFound(current.ID)
	}

	n := len(current.Turns)
	answered := current.Clone()
	answered.Turns[n-1].Response = response
	question := answered.Turns[n-1].Question

	p, err := s.plan(ctx, e.agents, answered, t, question, response)
	if err != nil {
		s.log.Warn().Err(err).Str("session_id", current.ID).Int("trait_index", current.TraitIndex).Msg("transition aborted")
		return Reply{}, err
	}

	// commit
	updated := answered.Clone()
	recs := []interview.Record{
		interview.ResponseRecord(answered, t.Name, answered.Turns[n-1], p.verdict.Classification, p.verdict.Feedback),
	}
	if p.score != nil {
		recs = append(recs, interview.ScoreRecord(answered, t.Name, *p.score))
	}
	if p.followUp != nil {
		updated.Turns = append(updated.Turns, *p.followUp)
		recs = append(recs, interview.FollowUpRecord(updated, t.Name, *p.followUp))
	}

	reply := Reply{SessionID: current.ID, Message: p.message, Score: p.score, Classification: p.verdict.Classification}
	completed := false
	if p.advance {
		updated.TraitIndex++
		updated.Turns = nil
		if p.next != nil {
			updated.Turns = []interview.Turn{*p.next}
			nextTrait, _ := s.catalog.At(updated.TraitIndex)
			recs = append(recs, interview.ScenarioRecord(updated, nextTrait.Name, *p.next))
			reply.Question = p.next.Question
		} else {
			completed = true
			reply.SessionID = ""
			reply.Message = MessageCompleted
		}
	} else {
		reply.Question = p.followUp.Question
	}
	updated.UpdatedAt = time.Now().UTC()
	e.session = updated

	reply.TranscriptWarning = s.record(ctx, updated, recs...)
	s.metrics.transition(reply.Message)

	if completed {
		s.retireLocked(ctx, e)
	} else {
		s.saveSnapshot(ctx, updated)
	}

	s.log.Info().
		Str("session_id", current.ID).
		Int("trait_index", current.TraitIndex).
		Int("turns_before", n).
		Str("classification", string(p.verdict.Classification)).
		Str("message", reply.Message).
		Msg("transition")
	return reply, nil
}

func (s *Service) plan(ctx context.Context, agents agent.Set, answered interview.Session, t trait.Trait, question, response string) (plan, error) {
	n := len(answered.Turns)
	var p plan

	err := s.call(ctx, capJudge, func(ctx context.Context) error {
		v, err := agents.Judge.JudgeSatisfaction(ctx, question, response, t.Name)
		p.verdict = v
		return err
	})
	if err != nil {
		return plan{}, err
	}

	switch p.verdict.Classification {
	case interview.Satisfied:
		var score float64
		err := s.call(ctx, capScore, func(ctx context.Context) error {
			v, err := agents.Scorer.ScoreScenario(ctx, answered.Clone().Turns, t)
			score = v
			return err
		})
		if err != nil {
			return plan{}, err
		}
		p.score = &score
		p.advance = true
		p.message = MessageAdvance

	case interview.Insufficient:
		if n >= insufficientTurnLimit {
			p.advance = true
			p.message = MessageAdvanceInsufficient
			break
		}
		if p.followUp, err = s.draftFollowUp(ctx, agents, answered, t, true); err != nil {
			return plan{}, err
		}
		p.message = MessageFollowUp

	default:
		// Anything the judge could not place counts as unsatisfied.
		p.verdict.Classification = interview.Unsatisfied
		if p.followUp, err = s.draftFollowUp(ctx, agents, answered, t, false); err != nil {
			return plan{}, err
		}
		if n+1 >= unsatisfiedTurnLimit {
			p.advance = true
			p.message = MessageAdvanceUnsatisfied
		} else {
			p.message = MessageFollowUp
		}
	}

	if p.advance {
		if next, ok := s.catalog.At(answered.TraitIndex + 1); ok {
			q, err := s.phrase(ctx, agents, answered.CandidateName, next)
			if err != nil {
				return plan{}, err
			}
			opening := interview.NewScenarioTurn(next.Scenario, q)
			p.next = &opening
		}
	}
	return p, nil
}

func (s *Service) draftFollowUp(ctx context.Context, agents agent.Set, answered interview.Session, t trait.Trait, insufficient bool) (*interview.Turn, error) {
	index := len(answered.Turns)
	var question string
	err := s.call(ctx, capFollowUp, func(ctx context.Context) error {
		q, err := agents.FollowUp.DraftFollowUp(ctx, answered.CandidateName, answered.Clone().Turns, index, insufficient)
		question = strings.TrimSpace(q)
		return err
	})
	if err != nil {
		return nil, err
	}
	if question == "" {
		return nil, &CapabilityError{Capability: capFollowUp, Err: errors.New("empty follow-up question")}
	}
	turn := interview.NewFollowUpTurn(t.Scenario, index, question)
	return &turn, nil
}

// phrase falls back to the base question when the phraser returns nothing.
func (s *Service) phrase(ctx context.Context, agents agent.Set, candidate string, t trait.Trait) (string, error) {
	var question string
	err := s.call(ctx, capPhrase, func(ctx context.Context) error {
		q, err := agents.Phraser.PhraseQuestion(ctx, candidate, t.Scenario, t.BaseQuestion)
		question = strings.TrimSpace(q)
		return err
	})
	if err != nil {
		return "", err
	}
	if question == "" {
		question = t.BaseQuestion
	}
	return question, nil
}

func (s *Service) newAgents(ctx context.Context, sessionID string) (agent.Set, error) {
	var set agent.Set
	err := s.call(ctx, capAgents, func(ctx context.Context) error {
		v, err := s.agents.New(ctx, sessionID)
		set = v
		return err
	})
	if err != nil {
		return agent.Set{}, err
	}
	if set.Phraser == nil || set.Judge == nil || set.FollowUp == nil || set.Scorer == nil {
		return agent.Set{}, &CapabilityError{Capability: capAgents, Err: errors.New("incomplete capability set")}
	}
	return set, nil
}

// call runs fn under the capability timeout. fn runs on its own goroutine so a call that
// ignores its context still cannot hold the session past the deadline; results written by
// fn must only be read when call returns nil.
func (s *Service) call(ctx context.Context, capability string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		done <- fn(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	status := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = "timeout"
	case err != nil:
		status = "error"
	}
	s.metrics.observeCapability(capability, status, time.Since(start))

	if err != nil {
		return &CapabilityError{Capability: capability, Err: err}
	}
	return nil
}
