package interview

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	speechmodel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
)

// AudioInput is an uploaded spoken answer.
type AudioInput struct {
	Data     io.Reader
	Filename string
	Language string
}

// SubmitAudio transcribes the answer and submits the text. The upload is staged to a temp file
// that is removed on every path. Transcription runs outside the session lock.
func (s *Service) SubmitAudio(ctx context.Context, sessionID string, in AudioInput) (Reply, error) {
	if s.transcriber == nil {
		return Reply{}, ErrTranscriptionDisabled
	}
	id := strings.TrimSpace(sessionID)
	if _, err := s.lookup(id); err != nil {
		return Reply{}, err
	}
	if in.Data == nil {
		return Reply{}, validationError("audio file is required")
	}

	path, size, err := s.stageAudio(in)
	if err != nil {
		return Reply{}, err
	}
	defer os.Remove(path)

	if size == 0 {
		return Reply{}, validationError("audio file is empty")
	}

	text, err := s.transcribe(ctx, id, path, in)
	if err != nil {
		return Reply{}, err
	}
	if text == "" {
		return Reply{}, validationError("transcription is empty")
	}

	s.log.Debug().Str("session_id", id).Int("chars", len(text)).Msg("audio transcribed")
	return s.Submit(ctx, id, text)
}

func (s *Service) stageAudio(in AudioInput) (string, int64, error) {
	pattern := "interview-audio-*" + filepath.Ext(in.Filename)
	file, err := os.CreateTemp(s.tempDir, pattern)
	if err != nil {
		return "", 0, fmt.Errorf("stage audio: %w", err)
	}
	path := file.Name()

	size, copyErr := io.Copy(file, in.Data)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(path)
		if copyErr != nil {
			return "", 0, fmt.Errorf("stage audio: %w", copyErr)
		}
		return "", 0, fmt.Errorf("stage audio: %w", closeErr)
	}
	return path, size, nil
}

func (s *Service) transcribe(ctx context.Context, sessionID, path string, in AudioInput) (string, error) {
	var text string
	err := s.call(ctx, capTranscribe, func(ctx context.Context) error {
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		resp, err := s.transcriber.Transcribe(ctx, &speechmodel.ASRRequest{
			SessionID: sessionID,
			AudioData: file,
			Filename:  in.Filename,
			Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(in.Filename)), "."),
			Language:  in.Language,
		})
		if err != nil {
			return err
		}
		if resp != nil {
			text = strings.TrimSpace(resp.Text)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
