package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// RenderClientInterface defines the interface for the ezdxf render runtime client
type RenderClientInterface interface {
	Execute(ctx context.Context, pythonCode, filename string) (*RenderResult, error)
	IsHealthy(ctx context.Context) bool
}

// RenderClient handles communication with the ezdxf render runtime, the
// external service that executes generated drafting code and returns the
// resulting DXF artifact.
type RenderClient struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
	breaker    *gobreaker.CircuitBreaker
}

// RenderRequest is the execution payload for the render runtime.
type RenderRequest struct {
	PythonCode string `json:"python_code"`
	Filename   string `json:"filename"`
}

// RenderResult is the runtime's response: the DXF artifact as base64 plus an
// execution log, or an error with the captured traceback.
type RenderResult struct {
	Success      bool   `json:"success"`
	DXFContent   string `json:"dxf_content,omitempty"`
	Filename     string `json:"filename,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	ExecutionLog string `json:"execution_log,omitempty"`
	Error        string `json:"error,omitempty"`
	Traceback    string `json:"traceback,omitempty"`
}

// NewRenderClient creates a new render runtime client
func NewRenderClient() *RenderClient {
	baseURL := os.Getenv("RENDER_RUNTIME_URL")
	if baseURL == "" {
		baseURL = "http://ezdxf-runtime-service:8080"
		log.Printf("WARN: RENDER_RUNTIME_URL not set, defaulting to %s", baseURL)
	}

	settings := gobreaker.Settings{
		Name:        "ezdxf-runtime",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s changed from %s to %s", name, from, to)
		},
	}

	return &RenderClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Script execution can take tens of seconds on cold starts.
			Timeout: 90 * time.Second,
		},
		tracer:  otel.Tracer("ezdxf-runtime-client"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// SetBaseURL sets the base URL for testing purposes
func (c *RenderClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// Execute runs generated ezdxf code on the render runtime and returns the
// artifact. A runtime-side execution failure (bad generated code) comes back
// as an error carrying the runtime's log rather than a RenderResult.
func (c *RenderClient) Execute(ctx context.Context, pythonCode, filename string) (*RenderResult, error) {
	ctx, span := c.tracer.Start(ctx, "ezdxf_runtime.execute")
	defer span.End()

	span.SetAttributes(
		attribute.String("render.filename", filename),
		attribute.Int("render.code_bytes", len(pythonCode)),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.executeInternal(ctx, pythonCode, filename)
	})

	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to execute on render runtime: %w", err)
	}

	res := result.(*RenderResult)
	span.SetAttributes(
		attribute.Bool("render.success", res.Success),
		attribute.Int64("render.file_size", res.FileSize),
	)
	return res, nil
}

// executeInternal performs the actual HTTP request
func (c *RenderClient) executeInternal(ctx context.Context, pythonCode, filename string) (*RenderResult, error) {
	jsonData, err := json.Marshal(RenderRequest{PythonCode: pythonCode, Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/execute", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	// The runtime reports script errors as 400 with a JSON body; anything
	// else non-200 is a transport-level failure.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		bodyBytes, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("render runtime returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("render runtime returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result RenderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest || (!result.Success && result.Error != "") {
		return nil, fmt.Errorf("render runtime execution error: %s", result.Error)
	}

	return &result, nil
}

// IsHealthy checks if the render runtime is healthy
func (c *RenderClient) IsHealthy(ctx context.Context) bool {
	ctx, span := c.tracer.Start(ctx, "ezdxf_runtime.health_check")
	defer span.End()

	if c.breaker.State() == gobreaker.StateOpen {
		span.SetAttributes(attribute.Bool("healthy", false), attribute.String("reason", "circuit_breaker_open"))
		return false
	}

	url := fmt.Sprintf("%s/health", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		span.RecordError(err)
		return false
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return false
	}
	defer resp.Body.Close()

	healthy := resp.StatusCode == http.StatusOK
	span.SetAttributes(attribute.Bool("healthy", healthy))

	return healthy
}
