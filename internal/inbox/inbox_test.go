package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/store"
	"github.com/starford/murmur/internal/testutil"
)

func newIngestor(t *testing.T) (*Ingestor, *store.Store, storage.Provider) {
	t.Helper()
	st := store.New(nil, nil)
	_, blobs := testutil.TestLibrary(t)
	return NewIngestor(st, blobs, nil), st, blobs
}

func TestIngestStoresUpload(t *testing.T) {
	ing, st, blobs := newIngestor(t)

	rec, err := ing.Ingest("meeting.mp3", []byte("mp3data"))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if rec.Title != "meeting.mp3" {
		t.Errorf("title = %q, want meeting.mp3", rec.Title)
	}
	if rec.Method != models.MethodUploaded {
		t.Errorf("method = %s, want uploaded", rec.Method)
	}
	if rec.Checksum == "" {
		t.Error("checksum must be set")
	}

	data, err := blobs.Read(rec.AudioRef)
	if err != nil {
		t.Fatalf("Read blob: %v", err)
	}
	if string(data) != "mp3data" {
		t.Errorf("blob = %q", data)
	}
	if _, err := st.Get(rec.ID); err != nil {
		t.Errorf("recording not in store: %v", err)
	}
}

func TestIngestRejectsUnknownFormat(t *testing.T) {
	ing, st, _ := newIngestor(t)
	if _, err := ing.Ingest("notes.txt", []byte("x")); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Ingest = %v, want ErrValidation", err)
	}
	if len(st.Active()) != 0 {
		t.Error("nothing may be stored for a rejected format")
	}
}

func TestIngestRejectsEmptyPayload(t *testing.T) {
	ing, _, _ := newIngestor(t)
	if _, err := ing.Ingest("a.wav", nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Ingest = %v, want ErrValidation", err)
	}
}

func waitForRecordings(t *testing.T, st *store.Store, n int) []models.Recording {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		recs := st.Active()
		if len(recs) >= n {
			return recs
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %d recordings, have %d", n, len(recs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatchIngestsDroppedFile(t *testing.T) {
	ing, st, _ := newIngestor(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, ing, dir, 20*time.Millisecond, nil)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	dropped := filepath.Join(dir, "standup.wav")
	if err := os.WriteFile(dropped, []byte("wavdata"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	recs := waitForRecordings(t, st, 1)
	if recs[0].Title != "standup.wav" {
		t.Errorf("title = %q, want standup.wav", recs[0].Title)
	}
	if recs[0].Method != models.MethodUploaded {
		t.Errorf("method = %s, want uploaded", recs[0].Method)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(dropped); os.IsNotExist(err) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("ingested file not removed from inbox")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	<-done
}

func TestWatchPicksUpExistingFiles(t *testing.T) {
	ing, st, _ := newIngestor(t)
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "old.ogg"), []byte("oggdata"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Watch(ctx, ing, dir, 20*time.Millisecond, nil) }()

	recs := waitForRecordings(t, st, 1)
	if recs[0].Title != "old.ogg" {
		t.Errorf("title = %q, want old.ogg", recs[0].Title)
	}
}

func TestWatchIgnoresNonAudio(t *testing.T) {
	ing, st, _ := newIngestor(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = Watch(ctx, ing, dir, 20*time.Millisecond, nil) }()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "readme.md"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if len(st.Active()) != 0 {
		t.Error("non-audio files must not be ingested")
	}
	if _, err := os.Stat(filepath.Join(dir, "readme.md")); err != nil {
		t.Error("non-audio files must be left in place")
	}
}
