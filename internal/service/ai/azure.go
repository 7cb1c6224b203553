package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/trait-interview/backend/internal/config"
)

// completionClient is the subset of *azopenai.Client used by AzureChatModel.
type completionClient interface {
	GetChatCompletions(ctx context.Context, body azopenai.ChatCompletionsOptions, options *azopenai.GetChatCompletionsOptions) (azopenai.GetChatCompletionsResponse, error)
}

// AzureChatModel adapts Azure OpenAI chat completions to eino's ChatModel.
type AzureChatModel struct {
	client       completionClient
	deploymentID string
	temperature  *float32
	topP         *float32
	maxTokens    *int32
}

// NewAzureChatModel creates a key-authenticated Azure OpenAI chat model.
func NewAzureChatModel(cfg config.AIConfig) (*AzureChatModel, error) {
	keyCredential := azcore.NewKeyCredential(cfg.AzureAPIKey)
	client, err := azopenai.NewClientWithKeyCredential(cfg.AzureEndpoint, keyCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Azure OpenAI client: %w", err)
	}

	m := &AzureChatModel{client: client, deploymentID: cfg.AzureDeploymentID}
	if cfg.Temperature != nil {
		m.temperature = to.Ptr(float32(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		m.topP = to.Ptr(float32(*cfg.TopP))
	}
	if cfg.MaxTokens != nil {
		m.maxTokens = to.Ptr(int32(*cfg.MaxTokens))
	}
	return m, nil
}

func (m *AzureChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: to.Ptr(m.deploymentID)}, opts...)

	body := azopenai.ChatCompletionsOptions{
		DeploymentName: options.Model,
		Messages:       make([]azopenai.ChatRequestMessageClassification, 0, len(input)),
		Temperature:    m.temperature,
		TopP:           m.topP,
		MaxTokens:      m.maxTokens,
	}
	if options.Temperature != nil {
		body.Temperature = options.Temperature
	}
	if options.TopP != nil {
		body.TopP = options.TopP
	}
	if options.MaxTokens != nil {
		body.MaxTokens = to.Ptr(int32(*options.MaxTokens))
	}
	if len(options.Stop) > 0 {
		body.Stop = options.Stop
	}

	for _, msg := range input {
		converted, err := toAzureMessage(msg)
		if err != nil {
			return nil, err
		}
		body.Messages = append(body.Messages, converted)
	}

	resp, err := m.client.GetChatCompletions(ctx, body, nil)
	if err != nil {
		return nil, fmt.Errorf("Azure OpenAI request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return nil, errors.New("no completion received from Azure OpenAI")
	}

	out := schema.AssistantMessage(*resp.Choices[0].Message.Content, nil)
	if resp.Usage != nil && resp.Usage.PromptTokens != nil && resp.Usage.CompletionTokens != nil && resp.Usage.TotalTokens != nil {
		out.ResponseMeta = &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     int(*resp.Usage.PromptTokens),
				CompletionTokens: int(*resp.Usage.CompletionTokens),
				TotalTokens:      int(*resp.Usage.TotalTokens),
			},
		}
	}
	return out, nil
}

// Stream emits the full completion as a single chunk.
func (m *AzureChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *AzureChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errors.New("azure chat model: tool calling not supported")
}

func toAzureMessage(msg *schema.Message) (azopenai.ChatRequestMessageClassification, error) {
	if msg == nil {
		return nil, errors.New("azure chat model: nil message")
	}
	switch msg.Role {
	case schema.System:
		return &azopenai.ChatRequestSystemMessage{Content: azopenai.NewChatRequestSystemMessageContent(msg.Content)}, nil
	case schema.User:
		return &azopenai.ChatRequestUserMessage{Content: azopenai.NewChatRequestUserMessageContent(msg.Content)}, nil
	case schema.Assistant:
		return &azopenai.ChatRequestAssistantMessage{Content: azopenai.NewChatRequestAssistantMessageContent(msg.Content)}, nil
	default:
		return nil, fmt.Errorf("azure chat model: unsupported role %q", msg.Role)
	}
}
