package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	speechmodel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
)

type fakeTranscriber struct {
	req   *speechmodel.ASRRequest
	audio string
	err   error
}

func (f *fakeTranscriber) Transcribe(_ context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	f.req = req
	data, _ := io.ReadAll(req.AudioData)
	f.audio = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return &speechmodel.ASRResponse{SessionID: req.SessionID, Text: "testing one two"}, nil
}

func uploadRequest(t *testing.T, filename, audio string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio_file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(audio))
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("language", "en-US"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/speech/transcribe", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestTranscribeReturnsText(t *testing.T) {
	fake := &fakeTranscriber{}
	r := newRouter(New(fake, speechmodel.ProviderVolcengine, 1<<20))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "clip.webm", "audio-bytes"))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "testing one two")
	assert.Equal(t, "webm", fake.req.Format)
	assert.Equal(t, "en-US", fake.req.Language)
	assert.Equal(t, "audio-bytes", fake.audio)
}

func TestTranscribeFailureIsBadGateway(t *testing.T) {
	r := newRouter(New(&fakeTranscriber{err: errors.New("upstream")}, speechmodel.ProviderAzure, 1<<20))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "clip.wav", "audio"))

	assert.Equal(t, http.StatusBadGateway, resp.Code)
}

func TestTranscribeDisabled(t *testing.T) {
	r := newRouter(New(nil, "", 0))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "clip.wav", "audio"))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/speech/health", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"disabled"`)
}

func TestTranscribeRejectsEmptyUpload(t *testing.T) {
	r := newRouter(New(&fakeTranscriber{}, speechmodel.ProviderVolcengine, 1<<20))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, uploadRequest(t, "clip.wav", ""))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInferAudioFormat(t *testing.T) {
	assert.Equal(t, "mp3", inferAudioFormat("a.MP3"))
	assert.Equal(t, "wav", inferAudioFormat("noext"))
	assert.Equal(t, "ogg", inferAudioFormat("voice.ogg"))
}
