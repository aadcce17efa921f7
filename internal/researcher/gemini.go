package researcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiConfig configures the Gemini transport.
type GeminiConfig struct {
	APIKey      string
	Model       string
	RelayModel  string
	Temperature float32
}

// GeminiClient talks to the Gemini API with a server-held key.
type GeminiClient struct {
	client      *genai.Client
	model       string
	relayModel  string
	temperature float32
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:      client,
		model:       cfg.Model,
		relayModel:  cfg.RelayModel,
		temperature: cfg.Temperature,
	}, nil
}

func (g *GeminiClient) Close() {
	g.client.Close()
}

// GenerateJSON asks the structured-output model for a response matching schema
// and returns the raw text of the first candidate.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	// GenerativeModel is cheap and carries per-call settings, so build one per request.
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return responseText(resp)
}

// Relay forwards a free-form prompt to the relay model and returns the
// provider response untouched.
func (g *GeminiClient) Relay(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	model := g.client.GenerativeModel(g.relayModel)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to relay prompt: %w", err)
	}
	return resp, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	var builder strings.Builder
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("candidate has no text parts")
	}
	return text, nil
}
