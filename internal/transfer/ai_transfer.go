package transfer

// ChatMessage and ChatCompletionRequest mirror the OpenAI chat-completions
// request body; only the fields this service sends are present.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// CaptionRequest is the body of POST /api/ai/captions.
type CaptionRequest struct {
	FileName string `json:"file_name"`
	PostType string `json:"post_type"` // photo, reel
}

// InsightRequest is the body of POST /api/ai/insights.
type InsightRequest struct {
	AppID string `json:"app_id"`
	Type  string `json:"type"` // insights, content, strategy
}
