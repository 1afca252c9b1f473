package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultModel is the reference embedding model.
const DefaultModel = "text-embedding-3-small"

// DefaultDimensions is the output dimensionality of DefaultModel.
const DefaultDimensions = 1536

// Config holds the OpenAI gateway configuration
type Config struct {
	APIKey            string        // API key (if empty, reads from OPENAI_API_KEY env var)
	BaseURL           string        // API base URL (default: https://api.openai.com)
	Model             string        // Embedding model id (default: text-embedding-3-small)
	Dimensions        int           // Expected vector dimensionality (default: 1536)
	Timeout           time.Duration // Per-request timeout (default: 30s)
	MaxRetries        int           // Retries on retryable failures (default: 3)
	RequestsPerSecond float64       // Rate limit for API calls (default: 0 = unlimited)
	MaxConcurrent     int64         // Maximum concurrent API calls (default: 4)
}

// DefaultConfig returns the default gateway configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://api.openai.com",
		Model:         DefaultModel,
		Dimensions:    DefaultDimensions,
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		MaxConcurrent: 4,
	}
}

// OpenAIGateway calls the OpenAI embeddings API over HTTP.
//
// Retryable failures (timeouts, 408/429, 5xx) are retried with capped
// exponential backoff and jitter; everything that still fails surfaces
// as ErrProviderUnavailable. Concurrent callers are limited by a
// semaphore and an optional rate limiter so a batch ingestion run
// cannot trip provider rate limits.
type OpenAIGateway struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	sem        *semaphore.Weighted
}

var _ Gateway = (*OpenAIGateway)(nil)

// NewOpenAIGateway creates a gateway from the given configuration
func NewOpenAIGateway(cfg Config) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &OpenAIGateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		sem:        semaphore.NewWeighted(cfg.MaxConcurrent),
	}, nil
}

// Dimensions returns the configured vector dimensionality
func (g *OpenAIGateway) Dimensions() int {
	return g.cfg.Dimensions
}

// Embed generates an embedding for the given text
func (g *OpenAIGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer g.sem.Release(1)

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	var out embeddingsResponse
	if err := g.do(ctx, &embeddingsRequest{Model: g.cfg.Model, Input: []string{text}}, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if len(out.Data) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", ErrProviderUnavailable, len(out.Data))
	}

	raw := out.Data[0].Embedding
	if len(raw) != g.cfg.Dimensions {
		return nil, fmt.Errorf("%w: model returned %d dimensions, expected %d",
			ErrProviderUnavailable, len(raw), g.cfg.Dimensions)
	}

	vec := make([]float32, len(raw))
	for i, f := range raw {
		vec[i] = float32(f)
	}
	return vec, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}

func retryableErr(err error) bool {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return retryableStatus(httpErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	// http.Client wraps its own timeout in a url.Error that satisfies
	// net.Error, so anything left here is a hard transport failure.
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func (g *OpenAIGateway) do(ctx context.Context, body, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := g.doOnce(ctx, body)
		if err == nil {
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("decode response: %w", uErr)
			}
			return nil
		}

		if !retryableErr(err) || attempt == g.cfg.MaxRetries {
			return err
		}

		sleepFor := backoff
		if resp != nil {
			if ra := strings.TrimSpace(resp.Header.Get("Retry-After")); ra != "" {
				if secs, parseErr := strconv.Atoi(ra); parseErr == nil && secs > 0 {
					sleepFor = time.Duration(secs) * time.Second
				}
			}
		}
		if sleepFor > 10*time.Second {
			sleepFor = 10 * time.Second
		}
		sleepFor = jitter(sleepFor)

		log.Printf("[EMBED] retrying after %v (attempt %d/%d): %v",
			sleepFor.Round(time.Millisecond), attempt+1, g.cfg.MaxRetries, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleepFor):
		}
		backoff *= 2
	}
}

func (g *OpenAIGateway) doOnce(ctx context.Context, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/embeddings", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// jitter applies +/-20% to a backoff duration
func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*2*delta
	return time.Duration(v * float64(time.Second))
}
