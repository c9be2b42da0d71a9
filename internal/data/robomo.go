package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RoboMoClient talks to the RoboMo langserve backend. Implements
// repo.AnswerRepo and repo.ReindexRepo.
type RoboMoClient struct {
	baseURL   string
	chainPath string
	http      *http.Client
	log       zerolog.Logger
}

// NewRoboMoClient creates a client for the backend at baseURL. chainPath is
// the mounted retrieval chain, e.g. "rag-momento-vector-index".
func NewRoboMoClient(baseURL, chainPath string, log zerolog.Logger) *RoboMoClient {
	return &RoboMoClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		chainPath: "/" + strings.Trim(chainPath, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		log:       log.With().Str("component", "robomo").Logger(),
	}
}

type invokeRequest struct {
	Input string `json:"input"`
}

type invokeResponse struct {
	Output string `json:"output"`
}

// Ask sends the question through the chain's invoke endpoint. Non-2xx
// statuses and malformed bodies are errors; the deliverer treats all of them
// as retryable.
func (c *RoboMoClient) Ask(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(invokeRequest{Input: question})
	if err != nil {
		return "", fmt.Errorf("encode invoke request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.chainPath+"/invoke", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("invoke: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("invoke: unexpected status %s", resp.Status)
	}

	var out invokeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode invoke response: %w", err)
	}
	if out.Output == "" {
		return "", fmt.Errorf("invoke: empty output")
	}
	return out.Output, nil
}

// TriggerReindex fires the backend's index rebuild. No request body; the
// response body is discarded beyond the status code.
func (c *RoboMoClient) TriggerReindex(ctx context.Context, indexName string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reindex/"+url.PathEscape(indexName), nil)
	if err != nil {
		return fmt.Errorf("build reindex request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reindex: unexpected status %s", resp.Status)
	}

	c.log.Info().Str("index", indexName).Int("status", resp.StatusCode).Msg("reindex triggered")
	return nil
}
