package interview

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
	speechmodel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	"github.com/zhouzirui/trait-interview/backend/internal/service/agent"
	"github.com/zhouzirui/trait-interview/backend/internal/service/transcript"
)

// fakeAgents implements all four capabilities with scripted behaviour.
type fakeAgents struct {
	mu        sync.Mutex
	verdicts  []interview.Classification
	fallback  interview.Classification
	score     float64
	phraseOut func(baseQuestion string) string

	judgeErr    error
	scoreErr    error
	followErr   error
	phraseErr   error
	judgeDelay  time.Duration
	judgeIgnore bool // judge ignores ctx and sleeps judgeDelay

	judgeCalls    int
	scoreCalls    int
	followUpFlags []bool

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeAgents(verdicts ...interview.Classification) *fakeAgents {
	return &fakeAgents{verdicts: verdicts, fallback: interview.Satisfied, score: 8}
}

func (f *fakeAgents) PhraseQuestion(_ context.Context, candidate, _, baseQuestion string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phraseErr != nil {
		return "", f.phraseErr
	}
	if f.phraseOut != nil {
		return f.phraseOut(baseQuestion), nil
	}
	return "phrased(" + baseQuestion + ")", nil
}

func (f *fakeAgents) JudgeSatisfaction(ctx context.Context, _, _, _ string) (agent.Verdict, error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxInFlight.Load()
		if cur <= prev || f.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	f.mu.Lock()
	delay, ignore, judgeErr := f.judgeDelay, f.judgeIgnore, f.judgeErr
	f.mu.Unlock()

	if delay > 0 {
		if ignore {
			time.Sleep(delay)
		} else {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return agent.Verdict{}, ctx.Err()
			}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.judgeCalls++
	if judgeErr != nil {
		return agent.Verdict{}, judgeErr
	}
	c := f.fallback
	if len(f.verdicts) > 0 {
		c = f.verdicts[0]
		f.verdicts = f.verdicts[1:]
	}
	return agent.Verdict{Classification: c, Feedback: "fb:" + string(c)}, nil
}

func (f *fakeAgents) DraftFollowUp(_ context.Context, _ string, _ []interview.Turn, turnIndex int, insufficient bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.followErr != nil {
		return "", f.followErr
	}
	f.followUpFlags = append(f.followUpFlags, insufficient)
	return fmt.Sprintf("follow-up %d", turnIndex), nil
}

func (f *fakeAgents) ScoreScenario(_ context.Context, history []interview.Turn, _ trait.Trait) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scoreErr != nil {
		return 0, f.scoreErr
	}
	if len(history) == 0 || history[len(history)-1].Response == "" {
		return 0, fmt.Errorf("scored without the final response")
	}
	f.scoreCalls++
	return f.score, nil
}

func (f *fakeAgents) set(fn func(f *fakeAgents)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAgents) factory() agent.Factory {
	return agent.FactoryFunc(func(context.Context, string) (agent.Set, error) {
		return agent.Set{Phraser: f, Judge: f, FollowUp: f, Scorer: f}, nil
	})
}

type fakeTranscriber struct {
	text string
	err  error
	got  []byte

	delay    time.Duration // sleeps without watching ctx
	finished chan struct{} // closed when Transcribe returns, if set
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if f.finished != nil {
		defer close(f.finished)
	}
	buf := make([]byte, 64)
	n, _ := req.AudioData.Read(buf)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.got = buf[:n]
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.ASRResponse{SessionID: req.SessionID, Text: f.text}, nil
}

func catalogOf(n int) trait.Catalog {
	items := make([]trait.Trait, 0, n)
	names := []string{"Integrity", "Accountability", "Collaboration", "Adaptability"}
	for i := 0; i < n; i++ {
		items = append(items, trait.Trait{
			Name:         names[i%len(names)],
			Scenario:     fmt.Sprintf("S%d", i+1),
			BaseQuestion: fmt.Sprintf("Q%d", i+1),
		})
	}
	return trait.NewMemoryCatalog(items)
}

type harness struct {
	svc      *Service
	agents   *fakeAgents
	recorder *transcript.MemoryRecorder
	registry *prometheus.Registry
}

func newHarness(t *testing.T, traits int, agents *fakeAgents, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		agents:   agents,
		recorder: transcript.NewMemoryRecorder(),
		registry: prometheus.NewRegistry(),
	}
	opts := Options{
		Catalog:           catalogOf(traits),
		Agents:            agents.factory(),
		Recorder:          h.recorder,
		CapabilityTimeout: time.Second,
		TempDir:           t.TempDir(),
		Registerer:        h.registry,
		Logger:            zerolog.Nop(),
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	svc, err := NewService(opts)
	require.NoError(t, err)
	h.svc = svc
	return h
}

func (h *harness) start(t *testing.T, name string) string {
	t.Helper()
	res, err := h.svc.Start(context.Background(), StartRequest{CandidateName: name})
	require.NoError(t, err)
	return res.SessionID
}

func (h *harness) types(target string) []interview.RecordType {
	var out []interview.RecordType
	for _, rec := range h.recorder.Entries(target) {
		out = append(out, rec.Type)
	}
	return out
}
