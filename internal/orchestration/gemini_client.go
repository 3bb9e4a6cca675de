package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	genai "google.golang.org/genai"
)

// ErrEmptyCompletion is returned when the model responds without any text.
var ErrEmptyCompletion = errors.New("llm: empty completion from model")

// LanguageModel is the narrow contract the service has with the language
// model: prompt in, free-form text (expected to contain a drawing or patch
// JSON object) out. The tolerant parser in internal/dxf owns everything else.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli    *genai.Client
	model  string
	tracer trace.Tracer
}

// NewGeminiClient creates a Gemini-backed language model client. Model name
// comes from GEMINI_MODEL with a logged default; the API key is picked up by
// the genai SDK from its own environment variables.
func NewGeminiClient(ctx context.Context) (*GeminiClient, error) {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
		log.Printf("WARN: GEMINI_MODEL not set, defaulting to %s", model)
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiClient{
		cli:    cli,
		model:  model,
		tracer: otel.Tracer("gemini-client"),
	}, nil
}

// Complete sends the prompt and returns the raw model text. Transient
// failures are retried with exponential backoff; the response is returned
// untouched so the caller's tolerant parser sees exactly what the model said.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "gemini.complete")
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", g.model),
		attribute.Int("llm.prompt_bytes", len(prompt)),
	)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
			nil,
		)
		if err != nil {
			lastErr = err
		} else if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = ErrEmptyCompletion
		} else {
			text := resp.Candidates[0].Content.Parts[0].Text
			span.SetAttributes(attribute.Int("llm.completion_bytes", len(text)))
			return text, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(300*(1<<attempt)) * time.Millisecond):
		}
	}

	span.RecordError(lastErr)
	return "", fmt.Errorf("gemini completion failed after retries: %w", lastErr)
}
