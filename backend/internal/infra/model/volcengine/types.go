package volcengine

import "encoding/json"

// ChatMessage is a single message sent to or parsed from the Ark API.
type ChatMessage struct {
	Role             string `json:"role"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// ChatCompletionRequest carries the Ark chat completion parameters.
type ChatCompletionRequest struct {
	Model            string         `json:"model"`
	Messages         []ChatMessage  `json:"messages"`
	MaxTokens        int            `json:"max_tokens,omitempty"`
	Temperature      float64        `json:"temperature,omitempty"`
	TopP             float64        `json:"top_p,omitempty"`
	PresencePenalty  float64        `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64        `json:"frequency_penalty,omitempty"`
	Stop             []string       `json:"stop,omitempty"`
	ResponseFormat   map[string]any `json:"response_format,omitempty"`
	ExtraFields      map[string]any `json:"-"`
}

// MarshalJSON folds ExtraFields back into the standard request shape.
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

// ChatCompletionResponse maps the Ark completion result.
type ChatCompletionResponse struct {
	ID          string                 `json:"id"`
	Object      string                 `json:"object"`
	Created     int64                  `json:"created"`
	Model       string                 `json:"model"`
	ServiceTier string                 `json:"service_tier,omitempty"`
	Choices     []ChatCompletionChoice `json:"choices"`
	Usage       *ChatCompletionUsage   `json:"usage,omitempty"`
	Raw         map[string]any         `json:"-"`
}

// ChatCompletionChoice is one candidate answer in a completion.
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletionUsage carries the token accounting.
type ChatCompletionUsage struct {
	PromptTokens            int  `json:"prompt_tokens"`
	CompletionTokens        int  `json:"completion_tokens"`
	TotalTokens             int  `json:"total_tokens"`
	CachedTokens            int  `json:"cached_tokens"`
	ProvisionedPromptTokens *int // provisioned tokens are Ark-specific; pointer avoids false zeros
	ReasoningTokens         int
	ProvisionedCompTokens   *int
}

// APIError wraps Ark error responses for unified handling.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code != "" {
		return e.Message + " (" + e.Code + ")"
	}
	return e.Message
}
