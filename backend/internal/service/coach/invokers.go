package coach

import (
	"context"
	"fmt"
	"strings"

	"jkd-coach-app/backend/internal/infra/model/openaicompat"
	"jkd-coach-app/backend/internal/infra/model/volcengine"
)

// VolcengineInvoker adapts the Ark client to the ChatInvoker seam.
type VolcengineInvoker struct {
	client *volcengine.Client
	model  string
}

// NewVolcengineInvoker wraps an Ark client with a fixed endpoint model ID.
func NewVolcengineInvoker(client *volcengine.Client, model string) *VolcengineInvoker {
	return &VolcengineInvoker{client: client, model: strings.TrimSpace(model)}
}

func (v *VolcengineInvoker) ModelName() string { return v.model }

func (v *VolcengineInvoker) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := v.client.ChatCompletion(ctx, volcengine.ChatCompletionRequest{
		Model: v.model,
		Messages: []volcengine.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("volcengine returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAICompatInvoker adapts any OpenAI-compatible endpoint to the
// ChatInvoker seam.
type OpenAICompatInvoker struct {
	client *openaicompat.Client
	model  string
}

// NewOpenAICompatInvoker wraps an OpenAI-compatible client with a model name.
func NewOpenAICompatInvoker(client *openaicompat.Client, model string) *OpenAICompatInvoker {
	return &OpenAICompatInvoker{client: client, model: strings.TrimSpace(model)}
}

func (o *OpenAICompatInvoker) ModelName() string { return o.model }

func (o *OpenAICompatInvoker) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := o.client.ChatCompletion(ctx, openaicompat.ChatCompletionRequest{
		Model: o.model,
		Messages: []openaicompat.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
