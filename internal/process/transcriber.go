// Package process runs the speech pipeline over stored recordings:
// transcription first, then summarization over the transcript. External
// services do the heavy lifting; this package owns the per-recording
// stage bookkeeping so the two steps never overlap or run out of order.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Transcriber converts raw audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (string, error)
}

// HTTPTranscriber posts the audio as a multipart upload and expects a
// JSON body with a "transcription" field back.
type HTTPTranscriber struct {
	URL    string
	APIKey string
	Client *http.Client
}

// NewHTTPTranscriber builds a transcriber against the given endpoint.
func NewHTTPTranscriber(url, apiKey string) *HTTPTranscriber {
	return &HTTPTranscriber{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: 5 * time.Minute},
	}
}

type transcribeResponse struct {
	Transcription string `json:"transcription"`
}

// Transcribe uploads the audio and returns the recognized text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling transcription service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription service error (HTTP %d): %s", resp.StatusCode, respBody)
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing transcription response: %w", err)
	}
	if parsed.Transcription == "" {
		return "", fmt.Errorf("transcription service returned no text")
	}
	return parsed.Transcription, nil
}
