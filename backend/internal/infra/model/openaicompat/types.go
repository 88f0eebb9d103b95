package openaicompat

import "encoding/json"

// ChatMessage is a single message in a chat completion exchange.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the request body for an OpenAI-compatible
// chat completion endpoint.
type ChatCompletionRequest struct {
	Model            string         `json:"model"`
	Messages         []ChatMessage  `json:"messages"`
	MaxTokens        int            `json:"max_tokens,omitempty"`
	Temperature      float64        `json:"temperature,omitempty"`
	TopP             float64        `json:"top_p,omitempty"`
	PresencePenalty  float64        `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64        `json:"frequency_penalty,omitempty"`
	ResponseFormat   map[string]any `json:"response_format,omitempty"`
	Stop             any            `json:"stop,omitempty"`
	Stream           bool           `json:"stream,omitempty"`
	ExtraFields      map[string]any `json:"-"`
}

// MarshalJSON folds ExtraFields into the standard fields so extension
// parameters can be forwarded without new struct fields.
func (r ChatCompletionRequest) MarshalJSON() ([]byte, error) {
	type alias ChatCompletionRequest
	payload := map[string]any{}

	base, err := json.Marshal(alias(r))
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(base, &payload); err != nil {
		return nil, err
	}
	if r.ExtraFields != nil {
		for k, v := range r.ExtraFields {
			if _, exists := payload[k]; !exists {
				payload[k] = v
			}
		}
	}
	return json.Marshal(payload)
}

// ChatCompletionResponse maps the provider's completion result.
type ChatCompletionResponse struct {
	ID                string                 `json:"id"`
	Object            string                 `json:"object"`
	Created           int64                  `json:"created"`
	Model             string                 `json:"model"`
	Choices           []ChatCompletionChoice `json:"choices"`
	Usage             *ChatCompletionUsage   `json:"usage,omitempty"`
	SystemFingerprint string                 `json:"system_fingerprint,omitempty"`
	Raw               map[string]any         `json:"-"`
}

// ChatCompletionChoice is one candidate answer from the model.
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletionUsage carries the token accounting.
type ChatCompletionUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}
