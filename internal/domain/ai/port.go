package ai

import "context"

// Turn is one prior message in a follow-up chat.
type Turn struct {
	Role    string `json:"role"` // user | model
	Content string `json:"content"`
}

// Client is the oracle port. All methods return the model's raw text; no
// structure is guaranteed, normalization happens in the domain layer.
type Client interface {
	AnalyzeImage(ctx context.Context, imageURL string) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
	Chat(ctx context.Context, system string, history []Turn, message string) (string, error)
}
