package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// VisionClient is the minimal surface the registry needs from a vision model
// backend. Tests substitute fakes for it.
type VisionClient interface {
	// CheckModel verifies that the named model is available on the backend.
	CheckModel(ctx context.Context, model string) error
	// Query sends a prompt plus one image and returns the raw text response.
	Query(ctx context.Context, model, prompt string, image []byte) (string, error)
}

// OllamaClient implements VisionClient against an Ollama server.
type OllamaClient struct {
	client *api.Client
}

// NewOllamaClient creates a client for the given Ollama base URL.
func NewOllamaClient(ollamaURL string) (*OllamaClient, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &OllamaClient{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

func (c *OllamaClient) CheckModel(ctx context.Context, model string) error {
	_, err := c.client.Show(ctx, &api.ShowRequest{Model: model})
	if err != nil {
		return fmt.Errorf("model %q not available: %w", model, err)
	}
	return nil
}

func (c *OllamaClient) Query(ctx context.Context, model, prompt string, image []byte) (string, error) {
	streamFalse := false
	req := &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: prompt,
				Images:  []api.ImageData{api.ImageData(image)},
			},
		},
		Stream: &streamFalse,
	}

	var responseContent string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		responseContent = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if responseContent == "" {
		return "", fmt.Errorf("empty response from ollama")
	}

	return responseContent, nil
}
