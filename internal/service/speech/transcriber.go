package speech

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	speechmodel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
)

// Transcriber turns one staged audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error)
}

// NewTranscriber returns the client for cfg.Provider.
func NewTranscriber(cfg *speechmodel.SpeechConfig, log zerolog.Logger) (Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("speech: config is nil")
	}

	switch cfg.Provider {
	case speechmodel.ProviderVolcengine, "":
		if _, _, err := resolveCredentials(cfg); err != nil {
			return nil, err
		}
		return NewVolcengineASRClient(cfg, log), nil
	case speechmodel.ProviderAzure:
		return NewAzureWhisperClient(cfg)
	default:
		return nil, fmt.Errorf("speech: unsupported provider %q", cfg.Provider)
	}
}
