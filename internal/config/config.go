package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	speechModel "github.com/zhouzirui/trait-interview/backend/internal/model/speech"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	AI        AIConfig
	Speech    SpeechConfig
	Interview InterviewConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	interview, err := loadInterviewConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: logCfg, AI: ai, Speech: speech, Interview: interview}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	origins := splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadLogConfig() (LogConfig, error) {
	pretty, err := parseBoolEnv("LOG_PRETTY", true)
	if err != nil {
		return LogConfig{}, err
	}
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Pretty: pretty,
	}, nil
}

// AIProvider 选择大模型后端。
type AIProvider string

const (
	ProviderArk   AIProvider = "ark"
	ProviderAzure AIProvider = "azure"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider    AIProvider
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	AzureEndpoint     string
	AzureAPIKey       string
	AzureDeploymentID string
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderAzure:
		return c.AzureEndpoint != "" && c.AzureAPIKey != "" && c.AzureDeploymentID != ""
	default:
		return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
	}
}

// NewChatModel 使用 Ark 配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.Provider != ProviderArk || !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	provider := AIProvider(strings.ToLower(getEnvOrDefault("AI_PROVIDER", string(ProviderArk))))
	switch provider {
	case ProviderArk, ProviderAzure:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	return AIConfig{
		Provider:          provider,
		APIKey:            strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:         strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:         strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:             strings.TrimSpace(os.Getenv("Model")),
		BaseURL:           getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:            getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:       temperature,
		TopP:              topP,
		MaxTokens:         maxTokens,
		AzureEndpoint:     strings.TrimSpace(os.Getenv("AZURE_OPENAI_ENDPOINT")),
		AzureAPIKey:       strings.TrimSpace(os.Getenv("AZURE_OPENAI_KEY")),
		AzureDeploymentID: strings.TrimSpace(os.Getenv("AZURE_OPENAI_DEPLOYMENT_ID")),
	}, nil
}

// SpeechConfig 描述语音识别相关配置
type SpeechConfig struct {
	Provider          speechModel.Provider
	AppID             string
	AccessToken       string
	APIKey            string
	ConcurrentMode    bool
	ASRModel          string
	ASRLanguage       string
	AzureEndpoint     string
	AzureAPIKey       string
	AzureDeploymentID string
	Timeout           time.Duration
	Enabled           bool
}

// Model 转换为语音服务使用的配置结构。
func (c SpeechConfig) Model() *speechModel.SpeechConfig {
	return &speechModel.SpeechConfig{
		Provider:          c.Provider,
		AppID:             c.AppID,
		AccessToken:       c.AccessToken,
		APIKey:            c.APIKey,
		ConcurrentMode:    c.ConcurrentMode,
		ASRModel:          c.ASRModel,
		ASRLanguage:       c.ASRLanguage,
		AzureEndpoint:     c.AzureEndpoint,
		AzureAPIKey:       c.AzureAPIKey,
		AzureDeploymentID: c.AzureDeploymentID,
		Timeout:           c.Timeout,
	}
}

func loadSpeechConfig() (SpeechConfig, error) {
	// 解析超时设置
	timeout, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return SpeechConfig{}, err
	}
	timeoutSeconds := 30 // 默认30秒
	if timeout != nil {
		timeoutSeconds = *timeout
	}

	concurrent, err := parseBoolEnv("SPEECH_CONCURRENT_MODE", false)
	if err != nil {
		return SpeechConfig{}, err
	}

	provider := speechModel.Provider(strings.ToLower(getEnvOrDefault("SPEECH_PROVIDER", string(speechModel.ProviderVolcengine))))

	cfg := SpeechConfig{
		Provider:       provider,
		AppID:          strings.TrimSpace(os.Getenv("SPEECH_APP_ID")),
		AccessToken:    strings.TrimSpace(os.Getenv("SPEECH_ACCESS_TOKEN")),
		APIKey:         strings.TrimSpace(os.Getenv("SPEECH_API_KEY")),
		ConcurrentMode: concurrent,
		ASRModel:       getEnvOrDefault("SPEECH_ASR_MODEL", "bigmodel"),
		ASRLanguage:    getEnvOrDefault("SPEECH_ASR_LANGUAGE", "en-US"),
		// Whisper 默认复用 Azure OpenAI 的 endpoint 与 key
		AzureEndpoint:     getEnvOrDefault("AZURE_WHISPER_ENDPOINT", strings.TrimSpace(os.Getenv("AZURE_OPENAI_ENDPOINT"))),
		AzureAPIKey:       getEnvOrDefault("AZURE_WHISPER_KEY", strings.TrimSpace(os.Getenv("AZURE_OPENAI_KEY"))),
		AzureDeploymentID: strings.TrimSpace(os.Getenv("AZURE_WHISPER_DEPLOYMENT_ID")),
		Timeout:           time.Duration(timeoutSeconds) * time.Second,
	}
	if cfg.AccessToken == "" {
		cfg.AccessToken = cfg.APIKey
	}

	switch provider {
	case speechModel.ProviderVolcengine:
		cfg.Enabled = cfg.AppID != "" && cfg.AccessToken != ""
	case speechModel.ProviderAzure:
		cfg.Enabled = cfg.AzureEndpoint != "" && cfg.AzureAPIKey != "" && cfg.AzureDeploymentID != ""
	default:
		return SpeechConfig{}, fmt.Errorf("invalid SPEECH_PROVIDER value %q", provider)
	}

	return cfg, nil
}

// InterviewConfig 描述面试流程相关配置。
type InterviewConfig struct {
	CatalogPath       string
	TranscriptDir     string
	TranscriptSQLite  string
	SnapshotPath      string
	CapabilityTimeout time.Duration
	UploadLimitBytes  int64
}

func loadInterviewConfig() (InterviewConfig, error) {
	timeout, err := parseDurationEnv("CAPABILITY_TIMEOUT", 45*time.Second)
	if err != nil {
		return InterviewConfig{}, err
	}
	if timeout <= 0 {
		return InterviewConfig{}, fmt.Errorf("invalid CAPABILITY_TIMEOUT value %q: must be positive", timeout)
	}

	uploadMB := 32
	if override, err := parseOptionalIntEnv("UPLOAD_LIMIT_MB"); err != nil {
		return InterviewConfig{}, err
	} else if override != nil && *override > 0 {
		uploadMB = *override
	}

	return InterviewConfig{
		CatalogPath:       strings.TrimSpace(os.Getenv("TRAIT_CATALOG")),
		TranscriptDir:     getEnvOrDefault("TRANSCRIPT_DIR", "transcripts"),
		TranscriptSQLite:  strings.TrimSpace(os.Getenv("TRANSCRIPT_SQLITE")),
		SnapshotPath:      strings.TrimSpace(os.Getenv("SNAPSHOT_PATH")),
		CapabilityTimeout: timeout,
		UploadLimitBytes:  int64(uploadMB) << 20,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
