package volcengine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/volcengine"
	"github.com/volcengine/volcengine-go-sdk/volcengine/volcengineerr"
)

const defaultBaseURL = "https://ark.cn-beijing.volces.com/api/v3"

// Client wraps the Volcengine Ark Runtime chat completion API. It is safe
// for concurrent use.
type Client struct {
	apiKey  string
	baseURL string

	sdkOnce sync.Once
	sdk     *arkruntime.Client
}

// Option customises Client behaviour.
type Option func(*Client)

// WithBaseURL overrides the default regional endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed == "" {
			return
		}
		c.baseURL = strings.TrimRight(trimmed, "/")
	}
}

// NewClient initialises the client with an API key.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ensureSDK creates the underlying SDK client lazily, once, so concurrent
// requests share a single instance.
func (c *Client) ensureSDK() {
	c.sdkOnce.Do(func() {
		options := []arkruntime.ConfigOption{}
		if c.baseURL != "" {
			options = append(options, arkruntime.WithBaseUrl(c.baseURL))
		}
		c.sdk = arkruntime.NewClientWithApiKey(c.apiKey, options...)
	})
}

// ChatCompletion converts the request into the SDK shape, calls Ark and maps
// the response and errors back to local types.
func (c *Client) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if c == nil {
		return ChatCompletionResponse{}, fmt.Errorf("volcengine client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if c.apiKey == "" {
		return ChatCompletionResponse{}, fmt.Errorf("volcengine api key is empty")
	}
	if strings.TrimSpace(req.Model) == "" {
		return ChatCompletionResponse{}, fmt.Errorf("model is required")
	}
	if len(req.Messages) == 0 {
		return ChatCompletionResponse{}, fmt.Errorf("at least one message is required")
	}

	c.ensureSDK()

	arkReq := arkmodel.CreateChatCompletionRequest{
		Model:    req.Model,
		Messages: make([]*arkmodel.ChatCompletionMessage, 0, len(req.Messages)),
	}

	for _, msg := range req.Messages {
		arkReq.Messages = append(arkReq.Messages, &arkmodel.ChatCompletionMessage{
			Role: normalizeRole(msg.Role),
			Content: &arkmodel.ChatCompletionMessageContent{
				StringValue: volcengine.String(msg.Content),
			},
		})
	}

	if req.MaxTokens > 0 {
		arkReq.MaxTokens = volcengine.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		arkReq.Temperature = volcengine.Float32(float32(req.Temperature))
	}
	if req.TopP > 0 {
		arkReq.TopP = volcengine.Float32(float32(req.TopP))
	}
	if req.PresencePenalty > 0 {
		arkReq.PresencePenalty = volcengine.Float32(float32(req.PresencePenalty))
	}
	if req.FrequencyPenalty > 0 {
		arkReq.FrequencyPenalty = volcengine.Float32(float32(req.FrequencyPenalty))
	}
	if len(req.Stop) > 0 {
		arkReq.Stop = append(arkReq.Stop, req.Stop...)
	}

	resp, err := c.sdk.CreateChatCompletion(ctx, arkReq)
	if err != nil {
		if rf, ok := err.(volcengineerr.RequestFailure); ok {
			return ChatCompletionResponse{}, &APIError{
				StatusCode: rf.StatusCode(),
				Code:       rf.Code(),
				Message:    rf.Message(),
			}
		}
		return ChatCompletionResponse{}, fmt.Errorf("volcengine chat completion: %w", err)
	}

	return convertResponse(resp)
}

// normalizeRole maps caller roles onto the Ark SDK constants.
func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "system":
		return arkmodel.ChatMessageRoleSystem
	case "assistant":
		return arkmodel.ChatMessageRoleAssistant
	case "tool":
		return arkmodel.ChatMessageRoleTool
	default:
		return arkmodel.ChatMessageRoleUser
	}
}

// convertResponse maps the SDK response onto the local model.
func convertResponse(resp arkmodel.ChatCompletionResponse) (ChatCompletionResponse, error) {
	converted := ChatCompletionResponse{
		ID:      resp.ID,
		Object:  resp.Object,
		Created: resp.Created,
		Model:   resp.Model,
	}

	if len(resp.Choices) > 0 {
		converted.Choices = make([]ChatCompletionChoice, 0, len(resp.Choices))
		for _, choice := range resp.Choices {
			content := ""
			if choice.Message.Content != nil && choice.Message.Content.StringValue != nil {
				content = *choice.Message.Content.StringValue
			}
			reasoning := ""
			if choice.Message.ReasoningContent != nil {
				reasoning = *choice.Message.ReasoningContent
			}
			converted.Choices = append(converted.Choices, ChatCompletionChoice{
				Index: choice.Index,
				Message: ChatMessage{
					Role:             choice.Message.Role,
					Content:          content,
					ReasoningContent: reasoning,
				},
				FinishReason: string(choice.FinishReason),
			})
		}
	}

	usageData := resp.Usage
	if usageData.PromptTokens != 0 || usageData.CompletionTokens != 0 || usageData.TotalTokens != 0 || usageData.PromptTokensDetails.CachedTokens != 0 || usageData.CompletionTokensDetails.ReasoningTokens != 0 {
		usage := &ChatCompletionUsage{
			PromptTokens:     usageData.PromptTokens,
			CompletionTokens: usageData.CompletionTokens,
			TotalTokens:      usageData.TotalTokens,
			CachedTokens:     usageData.PromptTokensDetails.CachedTokens,
			ReasoningTokens:  usageData.CompletionTokensDetails.ReasoningTokens,
		}
		usage.ProvisionedPromptTokens = usageData.PromptTokensDetails.ProvisionedTokens
		usage.ProvisionedCompTokens = usageData.CompletionTokensDetails.ProvisionedTokens
		converted.Usage = usage
	}

	if rawBytes, err := json.Marshal(resp); err == nil {
		var raw map[string]any
		if err := json.Unmarshal(rawBytes, &raw); err == nil {
			converted.Raw = raw
		}
	}

	return converted, nil
}
