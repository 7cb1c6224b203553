// Package interview runs trait-based behavioral interviews: a registry of live sessions and the
// state machine that decides, per candidate reply, whether to ask a follow-up or move on.
package interview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	"github.com/zhouzirui/trait-interview/backend/internal/service/agent"
	"github.com/zhouzirui/trait-interview/backend/internal/service/speech"
	"github.com/zhouzirui/trait-interview/backend/internal/service/transcript"
)

const defaultCapabilityTimeout = 45 * time.Second

// SnapshotStore persists sessions so they survive a restart.
type SnapshotStore interface {
	Save(ctx context.Context, session interview.Session) error
	Delete(ctx context.Context, id string) error
	LoadAll(ctx context.Context) ([]interview.Session, error)
}

// Options wires a Service. Catalog, Agents and Recorder are required.
type Options struct {
	Catalog  trait.Catalog
	Agents   agent.Factory
	Recorder transcript.Recorder

	Snapshots   SnapshotStore
	Transcriber speech.Transcriber

	// CapabilityTimeout bounds every capability and transcription call.
	CapabilityTimeout time.Duration
	// TempDir is where uploaded audio is staged; empty means os.TempDir().
	TempDir    string
	Registerer prometheus.Registerer
	Logger     zerolog.Logger
}

type entry struct {
	mu      sync.Mutex
	session interview.Session
	agents  agent.Set
	retired bool
}

// Service owns every registered session. Each session is mutated by one reply at a time.
type Service struct {
	catalog     trait.Catalog
	agents      agent.Factory
	recorder    transcript.Recorder
	snapshots   SnapshotStore
	transcriber speech.Transcriber
	timeout     time.Duration
	tempDir     string
	metrics     *metrics
	log         zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

func NewService(opts Options) (*Service, error) {
	if opts.Catalog == nil || opts.Catalog.Len() == 0 {
		return nil, errors.New("interview: trait catalog is empty")
	}
	if opts.Agents == nil {
		return nil, errors.New("interview: agent factory is required")
	}
	if opts.Recorder == nil {
		return nil, errors.New("interview: transcript recorder is required")
	}

	timeout := opts.CapabilityTimeout
	if timeout <= 0 {
		timeout = defaultCapabilityTimeout
	}
	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Service{
		catalog:     opts.Catalog,
		agents:      opts.Agents,
		recorder:    opts.Recorder,
		snapshots:   opts.Snapshots,
		transcriber: opts.Transcriber,
		timeout:     timeout,
		tempDir:     tempDir,
		metrics:     newMetrics(opts.Registerer),
		log:         opts.Logger.With().Str("component", "interview").Logger(),
		sessions:    make(map[string]*entry),
	}, nil
}

// Create registers a new session for candidateName and records its opening question.
func (s *Service) Create(ctx context.Context, candidateName string) (interview.Session, error) {
	name := strings.TrimSpace(candidateName)
	if name == "" {
		return interview.Session{}, validationError("candidate name is required")
	}

	first, _ := s.catalog.At(0)
	id := uuid.NewString()

	agents, err := s.newAgents(ctx, id)
	if err != nil {
		return interview.Session{}, err
	}
	question, err := s.phrase(ctx, agents, name, first)
	if err != nil {
		return interview.Session{}, err
	}

	now := time.Now().UTC()
	opening := interview.NewScenarioTurn(first.Scenario, question)
	session := interview.Session{
		ID:               id,
		CandidateName:    name,
		TraitIndex:       0,
		Turns:            []interview.Turn{opening},
		TranscriptTarget: s.recorder.NewTarget(id, name),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Held until the opening record is written so a racing reply cannot record ahead of it.
	e := &entry{session: session, agents: agents}
	e.mu.Lock()
	defer e.mu.Unlock()

	s.register(e)
	s.record(ctx, session, interview.ScenarioRecord(session, first.Name, opening))
	s.saveSnapshot(ctx, session)

	s.log.Info().Str("session_id", id).Str("candidate", name).Msg("interview started")
	return session.Clone(), nil
}

// Get returns a copy of the session.
func (s *Service) Get(_ context.Context, id string) (interview.Session, error) {
	e, err := s.acquire(id)
	if err != nil {
		return interview.Session{}, err
	}
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// Retire removes the session. Retiring an unknown or already retired id is ErrNotFound.
func (s *Service) Retire(ctx context.Context, id string) error {
	e, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	s.retireLocked(ctx, e)
	return nil
}

// Active reports the number of registered sessions.
func (s *Service) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Restore re-registers snapshotted sessions with fresh capability handles. Snapshots that no
// longer fit the catalog are dropped.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.snapshots == nil {
		return 0, nil
	}

	sessions, err := s.snapshots.LoadAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshots: %w", err)
	}

	restored := 0
	for _, session := range sessions {
		log := s.log.With().Str("session_id", session.ID).Logger()
		if session.ID == "" || session.TraitIndex < 0 || session.TraitIndex >= s.catalog.Len() || len(session.Turns) == 0 {
			log.Warn().Int("trait_index", session.TraitIndex).Msg("dropping snapshot that does not fit the catalog")
			if session.ID != "" {
				if err := s.snapshots.Delete(ctx, session.ID); err != nil {
					log.Error().Err(err).Msg("delete stale snapshot")
				}
			}
			continue
		}

		if _, err := s.lookup(session.ID); err == nil {
			continue
		}

		agents, err := s.newAgents(ctx, session.ID)
		if err != nil {
			return restored, err
		}
		if s.registerIfAbsent(&entry{session: session.Clone(), agents: agents}) {
			restored++
		}
	}

	if restored > 0 {
		s.log.Info().Int("sessions", restored).Msg("sessions restored from snapshots")
	}
	return restored, nil
}

func (s *Service) register(e *entry) {
	s.mu.Lock()
	s.sessions[e.session.ID] = e
	s.mu.Unlock()
	s.metrics.active.Inc()
}

// registerIfAbsent never replaces a live entry; the existence check and insert share one lock.
func (s *Service) registerIfAbsent(e *entry) bool {
	s.mu.Lock()
	if _, exists := s.sessions[e.session.ID]; exists {
		s.mu.Unlock()
		return false
	}
	s.sessions[e.session.ID] = e
	s.mu.Unlock()
	s.metrics.active.Inc()
	return true
}

// lookup finds an entry without taking its lock.
func (s *Service) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return e, nil
}

// acquire returns the entry with its lock held. Waiters that wake on a retired entry get ErrNotFound.
func (s *Service) acquire(id string) (*entry, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.retired {
		e.mu.Unlock()
		return nil, notFound(id)
	}
	return e, nil
}

// retireLocked must be called with e.mu held.
func (s *Service) retireLocked(ctx context.Context, e *entry) {
	e.retired = true
	id := e.session.ID

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.metrics.active.Dec()

	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, id); err != nil {
			s.log.Error().Err(err).Str("session_id", id).Msg("delete snapshot")
		}
	}
	s.log.Info().Str("session_id", id).Msg("session retired")
}

func (s *Service) saveSnapshot(ctx context.Context, session interview.Session) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, session); err != nil {
		s.log.Error().Err(err).Str("session_id", session.ID).Msg("save snapshot")
	}
}

// record appends recs in order. Failures never revert state; they come back as a warning.
func (s *Service) record(ctx context.Context, session interview.Session, recs ...interview.Record) string {
	var errs []error
	for _, rec := range recs {
		if err := s.recorder.Append(ctx, session.TranscriptTarget, rec); err != nil {
			s.metrics.recorderFailures.Inc()
			s.log.Error().Err(err).
				Str("session_id", session.ID).
				Str("record", string(rec.Type)).
				Msg("transcript append failed")
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return ""
	}
	return fmt.Errorf("%w: %w", ErrRecorder, errors.Join(errs...)).Error()
}
