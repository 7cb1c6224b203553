package speech

import "time"

// Provider 语音识别后端
type Provider string

const (
	ProviderVolcengine Provider = "volcengine"
	ProviderAzure      Provider = "azure"
)

// SpeechConfig 语音识别配置
type SpeechConfig struct {
	Provider Provider `json:"provider"`

	// Volcengine 配置
	AppID          string `json:"appId"`            // 火山引擎 APP ID
	AccessToken    string `json:"accessToken"`      // 火山引擎 Access Token
	APIKey         string `json:"apiKey,omitempty"` // 兼容旧配置的 API Key
	ConcurrentMode bool   `json:"concurrentMode"`   // ASR并发模式（false为小时版）
	ASRModel       string `json:"asrModel"`
	ASRLanguage    string `json:"asrLanguage"`

	// Azure OpenAI Whisper 配置
	AzureEndpoint     string `json:"azureEndpoint"`
	AzureAPIKey       string `json:"-"`
	AzureDeploymentID string `json:"azureDeploymentId"`

	Timeout time.Duration `json:"timeout"`
}
