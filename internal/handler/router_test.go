package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/trait-interview/backend/internal/model/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/model/trait"
	"github.com/zhouzirui/trait-interview/backend/internal/service/agent"
	interviewService "github.com/zhouzirui/trait-interview/backend/internal/service/interview"
	"github.com/zhouzirui/trait-interview/backend/internal/service/transcript"
)

// agreeable accepts every answer and scores it 9.
type agreeable struct{}

func (agreeable) PhraseQuestion(_ context.Context, candidate, _, base string) (string, error) {
	return candidate + ", " + base, nil
}

func (agreeable) JudgeSatisfaction(context.Context, string, string, string) (agent.Verdict, error) {
	return agent.Verdict{Classification: interview.Satisfied}, nil
}

func (agreeable) DraftFollowUp(context.Context, string, []interview.Turn, int, bool) (string, error) {
	return "Tell me more.", nil
}

func (agreeable) ScoreScenario(context.Context, []interview.Turn, trait.Trait) (float64, error) {
	return 9, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	catalog := trait.NewMemoryCatalog(trait.Seed()[:2])
	registry := prometheus.NewRegistry()

	svc, err := interviewService.NewService(interviewService.Options{
		Catalog: catalog,
		Agents: agent.FactoryFunc(func(context.Context, string) (agent.Set, error) {
			a := agreeable{}
			return agent.Set{Phraser: a, Judge: a, FollowUp: a, Scorer: a}, nil
		}),
		Recorder:   transcript.NewMemoryRecorder(),
		TempDir:    t.TempDir(),
		Registerer: registry,
		Logger:     zerolog.Nop(),
	})
	require.NoError(t, err)

	return NewRouter(Deps{
		Interviews:       svc,
		Catalog:          catalog,
		Gatherer:         registry,
		AllowedOrigins:   []string{"*"},
		UploadLimitBytes: 1 << 20,
		Logger:           zerolog.Nop(),
	})
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestRouterRunsInterviewToCompletion(t *testing.T) {
	h := newTestRouter(t)

	resp := postJSON(t, h, "/api/interviews", map[string]string{"candidateName": "Ada"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var started interviewService.StartResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&started))
	require.NotEmpty(t, started.SessionID)

	path := "/api/interviews/" + started.SessionID + "/responses"
	resp = postJSON(t, h, path, map[string]string{"responseText": "I would raise it with them first."})
	require.Equal(t, http.StatusOK, resp.Code)
	var reply interviewService.Reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, interviewService.MessageAdvance, reply.Message)
	assert.Equal(t, started.SessionID, reply.SessionID)

	resp = postJSON(t, h, path, map[string]string{"responseText": "I would own the postmortem."})
	require.Equal(t, http.StatusOK, resp.Code)
	reply = interviewService.Reply{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, interviewService.MessageCompleted, reply.Message)
	assert.Empty(t, reply.SessionID)

	resp = postJSON(t, h, path, map[string]string{"responseText": "again"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRouterServesHealthTraitsAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/traits", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Integrity")

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "interview_active_sessions")
}

func TestRouterAudioWithoutTranscriber(t *testing.T) {
	h := newTestRouter(t)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/speech/health", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "disabled")
}

func TestRouterSetsCORSHeaders(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/interviews", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}
