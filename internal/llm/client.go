package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultEmbedModel = "gemini-embedding-001"

	// EmbeddingDim is the vector size requested from the embedding model
	// and the size of every collection in the vector store.
	EmbeddingDim = 768
)

type Config struct {
	APIKey     string
	Model      string
	EmbedModel string
}

// Client wraps the GenAI SDK for text generation and embeddings. All
// higher layers depend on the narrow interfaces they declare themselves,
// so tests never need a live client.
type Client struct {
	client     *genai.Client
	model      string
	embedModel string
	logger     *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("llm api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	embedModel := strings.TrimSpace(cfg.EmbedModel)
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}

	return &Client{
		client:     client,
		model:      model,
		embedModel: embedModel,
		logger:     logger.With("component", "llm"),
	}, nil
}

// Generate sends a system prompt plus user message and returns the model's
// textual response.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	return c.generate(ctx, system, prompt, nil)
}

// GenerateJSON constrains the response to a JSON document and strips any
// markdown fences the model wraps around it anyway.
func (c *Client) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	raw, err := c.generate(ctx, system, prompt, cfg)
	if err != nil {
		return "", err
	}
	return ExtractJSON(raw), nil
}

func (c *Client) generate(ctx context.Context, system, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	if system = strings.TrimSpace(system); system != "" {
		if cfg == nil {
			cfg = &genai.GenerateContentConfig{}
		}
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := collectText(resp)
	if output == "" {
		return "", errors.New("model returned empty response")
	}
	return output, nil
}

// Embed produces one vector per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: text}},
		})
	}

	dim := int32(EmbeddingDim)
	resp, err := c.client.Models.EmbedContent(ctx, c.embedModel, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// EmbedQuery embeds a single search query.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}
	return strings.TrimSpace(builder.String())
}

// ExtractJSON strips markdown code fences from a model response so the
// remainder parses as JSON.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
