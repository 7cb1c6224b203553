package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"

	speechmodel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
)

type transcriptionClient interface {
	GetAudioTranscription(ctx context.Context, body azopenai.AudioTranscriptionOptions, options *azopenai.GetAudioTranscriptionOptions) (azopenai.GetAudioTranscriptionResponse, error)
}

// AzureWhisperClient transcribes uploads with an Azure OpenAI whisper deployment.
type AzureWhisperClient struct {
	client       transcriptionClient
	deploymentID string
	language     string
}

func NewAzureWhisperClient(cfg *speechmodel.SpeechConfig) (*AzureWhisperClient, error) {
	if cfg.AzureEndpoint == "" || cfg.AzureAPIKey == "" || cfg.AzureDeploymentID == "" {
		return nil, errors.New("azure whisper config is missing endpoint, key or deployment")
	}

	client, err := azopenai.NewClientWithKeyCredential(cfg.AzureEndpoint, azcore.NewKeyCredential(cfg.AzureAPIKey), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Azure OpenAI client: %w", err)
	}
	return &AzureWhisperClient{client: client, deploymentID: cfg.AzureDeploymentID, language: cfg.ASRLanguage}, nil
}

func (c *AzureWhisperClient) Transcribe(ctx context.Context, req *speechmodel.ASRRequest) (*speechmodel.ASRResponse, error) {
	if req == nil || req.AudioData == nil {
		return nil, errors.New("no audio data to send")
	}
	audio, err := io.ReadAll(req.AudioData)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("no audio data to send")
	}

	filename := req.Filename
	if filename == "" {
		filename = "audio." + firstNonEmpty(req.Format, "wav")
	}

	body := azopenai.AudioTranscriptionOptions{
		File:           audio,
		Filename:       to.Ptr(filepath.Base(filename)),
		DeploymentName: to.Ptr(c.deploymentID),
		ResponseFormat: to.Ptr(azopenai.AudioTranscriptionFormatJSON),
	}
	// whisper expects ISO-639-1, so "en-US" becomes "en"
	if lang := whisperLanguage(firstNonEmpty(req.Language, c.language)); lang != "" {
		body.Language = to.Ptr(lang)
	}

	resp, err := c.client.GetAudioTranscription(ctx, body, nil)
	if err != nil {
		return nil, fmt.Errorf("Azure whisper request failed: %w", err)
	}

	text := ""
	if resp.Text != nil {
		text = strings.TrimSpace(*resp.Text)
	}
	var duration int64
	if resp.Duration != nil {
		duration = int64(*resp.Duration * 1000)
	}

	return &speechmodel.ASRResponse{
		SessionID:  req.SessionID,
		Text:       text,
		Confidence: estimateASRConfidence(text),
		Duration:   duration,
		RequestID:  req.SessionID,
		CreatedAt:  time.Now(),
	}, nil
}

func whisperLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
