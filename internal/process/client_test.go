package process

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func jsonDecode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func TestHTTPTranscriberSendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("Authorization = %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`{"transcription":"ok"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "sekrit")
	text, err := tr.Transcribe(context.Background(), "a.wav", []byte("audio"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q", text)
	}
}

func TestHTTPTranscriberMissingFieldIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"done"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "")
	if _, err := tr.Transcribe(context.Background(), "a.wav", []byte("audio")); err == nil {
		t.Error("a response without transcription text must be an error")
	}
}

func TestHTTPTranscriberNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, "")
	_, err := tr.Transcribe(context.Background(), "a.wav", []byte("audio"))
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want HTTP 502 mentioned", err)
	}
}

func TestHTTPSummarizerRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := jsonDecode(r, &req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Text != "long transcript" {
			t.Errorf("text = %q", req.Text)
		}
		w.Write([]byte(`{"summary":"short"}`))
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(srv.URL, "")
	summary, err := s.Summarize(context.Background(), "long transcript")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "short" {
		t.Errorf("summary = %q", summary)
	}
}

func TestHTTPSummarizerEmptySummaryIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"summary":""}`))
	}))
	defer srv.Close()

	s := NewHTTPSummarizer(srv.URL, "")
	if _, err := s.Summarize(context.Background(), "t"); err == nil {
		t.Error("empty summary must be an error")
	}
}
