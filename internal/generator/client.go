// Package generator wraps the external text-generation backend. The backend
// is a black box: one HTTP endpoint taking a system prompt, a user prompt,
// and sampling parameters, answering with generated text.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pmartynov/otvet/internal/apperr"
)

// Params are the sampling parameters sent with every request.
type Params struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// Client produces generated text for a prompt pair.
type Client interface {
	// Generate returns the generated text. Transport failures, timeouts,
	// and non-success statuses surface as apperr.ErrGenerationUnavailable.
	// No retries are performed.
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// HTTPClient implements Client against the /generate HTTP contract.
type HTTPClient struct {
	url    string
	params Params
	hc     *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTP creates a client for the given endpoint URL. timeout bounds the
// whole call; a non-positive value falls back to 60 seconds.
func NewHTTP(url string, timeout time.Duration, params Params) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		url:    strings.TrimSpace(url),
		params: params,
		hc:     &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	SystemPrompt string  `json:"system_prompt"`
	UserPrompt   string  `json:"user_prompt"`
	MaxLength    int     `json:"max_length"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate implements Client.
func (c *HTTPClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxLength:    c.params.MaxLength,
		Temperature:  c.params.Temperature,
		TopP:         c.params.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("generator: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("generator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d", apperr.ErrGenerationUnavailable, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", apperr.ErrGenerationUnavailable, err)
	}
	return out.Response, nil
}
