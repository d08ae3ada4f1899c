package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Summarizer condenses a transcript into a short summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// HTTPSummarizer posts the transcript as JSON and expects a JSON body
// with a "summary" field back.
type HTTPSummarizer struct {
	URL    string
	APIKey string
	Client *http.Client
}

// NewHTTPSummarizer builds a summarizer against the given endpoint.
func NewHTTPSummarizer(url, apiKey string) *HTTPSummarizer {
	return &HTTPSummarizer{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 2 * time.Minute},
	}
}

type summarizeRequest struct {
	Text string `json:"text"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// Summarize sends the transcript off and returns the condensed text.
func (s *HTTPSummarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	payload, err := json.Marshal(summarizeRequest{Text: transcript})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling summary service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading summary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("summary service error (HTTP %d): %s", resp.StatusCode, respBody)
	}

	var parsed summarizeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing summary response: %w", err)
	}
	if parsed.Summary == "" {
		return "", fmt.Errorf("summary service returned no text")
	}
	return parsed.Summary, nil
}
