package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/storage"
	"github.com/starford/murmur/internal/store"
)

// Stage names what the pipeline is doing to a recording right now.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageFailed       Stage = "failed"
)

// Status is the pipeline state of one recording. Reason is set only
// when Stage is failed.
type Status struct {
	Stage  Stage  `json:"stage"`
	Reason string `json:"reason,omitempty"`
}

// Orchestrator serializes pipeline work per recording. At most one
// stage runs for a given recording at a time; a second trigger while
// one is running is refused with ErrBusy.
type Orchestrator struct {
	mu     sync.Mutex
	stages map[string]Status

	store       *store.Store
	blobs       storage.Provider
	transcriber Transcriber
	summarizer  Summarizer
	logger      *slog.Logger
	wg          sync.WaitGroup
}

// New wires the pipeline over the store and blob provider.
func New(st *store.Store, blobs storage.Provider, tr Transcriber, sum Summarizer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		stages:      make(map[string]Status),
		store:       st,
		blobs:       blobs,
		transcriber: tr,
		summarizer:  sum,
		logger:      logger,
	}
}

// Stage reports the pipeline status of a recording.
func (o *Orchestrator) Stage(id string) Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	if st, ok := o.stages[id]; ok {
		return st
	}
	return Status{Stage: StageIdle}
}

// begin claims the recording for the given stage. A recording that is
// idle or failed may be claimed; a running one may not.
func (o *Orchestrator) begin(id string, stage Stage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	cur := o.stages[id]
	if cur.Stage == StageTranscribing || cur.Stage == StageSummarizing {
		return fmt.Errorf("%w: recording is already %s", apperr.ErrBusy, cur.Stage)
	}
	o.stages[id] = Status{Stage: stage}
	return nil
}

func (o *Orchestrator) finish(id string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.stages[id] = Status{Stage: StageFailed, Reason: err.Error()}
		return
	}
	delete(o.stages, id)
}

// StartTranscribe kicks off transcription in the background. It fails
// fast when the recording is unknown, trashed, empty, or already being
// processed; service errors surface later through Stage.
func (o *Orchestrator) StartTranscribe(ctx context.Context, id string) error {
	rec, err := o.store.Get(id)
	if err != nil {
		return err
	}
	if rec.Trashed() {
		return fmt.Errorf("%w: recording is in the trash", apperr.ErrConflict)
	}
	if rec.FileSize == 0 {
		return fmt.Errorf("%w: audio payload is empty", apperr.ErrValidation)
	}
	if err := o.begin(id, StageTranscribing); err != nil {
		return err
	}

	// The caller's context may be an HTTP request that ends as soon as
	// the trigger is accepted; keep its values but not its deadline.
	bg := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.finish(id, o.runTranscribe(bg, id, rec.Title, rec.AudioRef))
	}()
	return nil
}

func (o *Orchestrator) runTranscribe(ctx context.Context, id, title, ref string) error {
	audio, err := o.blobs.Read(ref)
	if err != nil {
		o.logger.Error("read audio for transcription", "id", id, "error", err)
		return fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return fmt.Errorf("%w: audio payload is empty", apperr.ErrValidation)
	}

	text, err := o.transcriber.Transcribe(ctx, title, audio)
	if err != nil {
		o.logger.Error("transcription failed", "id", id, "error", err)
		return err
	}

	// The recording may have been deleted while the service ran; drop
	// the result rather than resurrecting it.
	if _, err := o.store.UpdateTranscription(id, text); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			o.logger.Info("recording gone, transcription dropped", "id", id)
			return nil
		}
		return err
	}
	o.logger.Info("transcription stored", "id", id, "chars", len(text))
	return nil
}

// StartSummarize kicks off summarization in the background. The
// recording must already carry a transcription.
func (o *Orchestrator) StartSummarize(ctx context.Context, id string) error {
	rec, err := o.store.Get(id)
	if err != nil {
		return err
	}
	if rec.Trashed() {
		return fmt.Errorf("%w: recording is in the trash", apperr.ErrConflict)
	}
	if rec.Transcription == "" {
		return fmt.Errorf("%w: summarize %s", apperr.ErrNoTranscription, id)
	}
	if err := o.begin(id, StageSummarizing); err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.finish(id, o.runSummarize(bg, id, rec.Transcription))
	}()
	return nil
}

func (o *Orchestrator) runSummarize(ctx context.Context, id, transcript string) error {
	summary, err := o.summarizer.Summarize(ctx, transcript)
	if err != nil {
		o.logger.Error("summarization failed", "id", id, "error", err)
		return err
	}
	if _, err := o.store.UpdateSummary(id, summary); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			o.logger.Info("recording gone, summary dropped", "id", id)
			return nil
		}
		return err
	}
	o.logger.Info("summary stored", "id", id, "chars", len(summary))
	return nil
}

// Wait blocks until all in-flight pipeline work has finished. Used on
// shutdown and in tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
