package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/trait-interview/backend/internal/config"
)

type fakeCompletions struct {
	body azopenai.ChatCompletionsOptions
	resp azopenai.GetChatCompletionsResponse
	err  error
}

func (f *fakeCompletions) GetChatCompletions(_ context.Context, body azopenai.ChatCompletionsOptions, _ *azopenai.GetChatCompletionsOptions) (azopenai.GetChatCompletionsResponse, error) {
	f.body = body
	return f.resp, f.err
}

func replyWith(content string) azopenai.GetChatCompletionsResponse {
	var resp azopenai.GetChatCompletionsResponse
	resp.Choices = []azopenai.ChatChoice{{Message: &azopenai.ChatResponseMessage{Content: to.Ptr(content)}}}
	return resp
}

func TestAzureGenerateConvertsMessages(t *testing.T) {
	fake := &fakeCompletions{resp: replyWith("hello")}
	m := &AzureChatModel{client: fake, deploymentID: "gpt-4o"}

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("hi"),
		schema.AssistantMessage("earlier", nil),
		schema.UserMessage("again"),
	}, model.WithTemperature(0.2))
	require.NoError(t, err)

	assert.Equal(t, "hello", out.Content)
	assert.Equal(t, schema.Assistant, out.Role)
	require.NotNil(t, fake.body.DeploymentName)
	assert.Equal(t, "gpt-4o", *fake.body.DeploymentName)
	require.NotNil(t, fake.body.Temperature)
	assert.InDelta(t, 0.2, *fake.body.Temperature, 1e-6)
	require.Len(t, fake.body.Messages, 4)
	assert.IsType(t, &azopenai.ChatRequestSystemMessage{}, fake.body.Messages[0])
	assert.IsType(t, &azopenai.ChatRequestAssistantMessage{}, fake.body.Messages[2])
}

func TestAzureGenerateEmptyChoices(t *testing.T) {
	m := &AzureChatModel{client: &fakeCompletions{}, deploymentID: "gpt-4o"}

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
}

func TestAzureGenerateWrapsClientError(t *testing.T) {
	boom := errors.New("throttled")
	m := &AzureChatModel{client: &fakeCompletions{err: boom}, deploymentID: "gpt-4o"}

	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.ErrorIs(t, err, boom)
}

func TestAzureRejectsToolMessages(t *testing.T) {
	m := &AzureChatModel{client: &fakeCompletions{resp: replyWith("x")}, deploymentID: "gpt-4o"}

	_, err := m.Generate(context.Background(), []*schema.Message{{Role: schema.Tool, Content: "{}"}})
	require.Error(t, err)
}

func TestNewChatModelRequiresCredentials(t *testing.T) {
	_, err := NewChatModel(context.Background(), config.AIConfig{Provider: config.ProviderAzure})
	require.Error(t, err)

	_, err = NewChatModel(context.Background(), config.AIConfig{Provider: config.ProviderArk})
	require.Error(t, err)
}
