package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/internal/pkg/logger"
	"github.com/clairexuu/SWAG-Golf/pkg/imagegen"
	"github.com/clairexuu/SWAG-Golf/pkg/retry"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	maxGenerationAttempts = 3
	generationTemperature = 0.8
	sketchFileFormat      = "sketch_%d.png"
)

// imageInvoker produces the raw image bytes for one slot. Workers stay
// agnostic of generate-vs-refine; the service binds the model call.
type imageInvoker func(ctx context.Context, index int) ([]byte, error)

// workerEvent is one message from a generation worker. Exactly one of Retry
// and Outcome is set; a slot emits zero or more retries followed by exactly
// one outcome.
type workerEvent struct {
	Retry   *retryNotice
	Outcome *entity.GenerationOutcome
}

type retryNotice struct {
	Index      int
	Attempt    int
	MaxRetries int
}

// generationWorker runs the per-slot retry loop and writes finished sketches
// to disk. One instance serves all slots of a batch.
type generationWorker struct {
	limiter *rate.Limiter
	logger  logger.ILogger
}

func newGenerationWorker(limiter *rate.Limiter, log logger.ILogger) *generationWorker {
	return &generationWorker{limiter: limiter, logger: log}
}

// runBatch fans out one goroutine per slot and forwards worker events to
// onEvent in arrival order. A slot's retries always arrive before its
// outcome. Outcomes land in the returned slot-indexed arrays; onEvent may be
// nil for callers that only need those. An onEvent error cancels the
// remaining slots and is returned as the batch error.
func (w *generationWorker) runBatch(
	ctx context.Context,
	config entity.GenerationConfig,
	outputDir string,
	invoke imageInvoker,
	onEvent func(workerEvent) error,
) ([]*string, []*string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	n := config.NumImages
	// Buffer covers the worst case of every slot retrying to exhaustion, so
	// workers never block on a slow consumer.
	events := make(chan workerEvent, n*maxGenerationAttempts)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		index := i
		g.Go(func() error {
			w.runSlot(gctx, index, config, outputDir, invoke, func(ev workerEvent) {
				events <- ev
			})
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(events)
	}()

	images := make([]*string, n)
	imageErrors := make([]*string, n)
	var emitErr error
	for ev := range events {
		if ev.Outcome != nil {
			images[ev.Outcome.Index] = ev.Outcome.ImagePath
			imageErrors[ev.Outcome.Index] = ev.Outcome.Error
		}
		if onEvent != nil && emitErr == nil {
			if err := onEvent(ev); err != nil {
				emitErr = err
				cancel()
			}
		}
	}
	if emitErr != nil {
		return nil, nil, emitErr
	}
	return images, imageErrors, nil
}

// runSlot generates slot index of the batch into outputDir. It never returns
// an error: failures become the slot's outcome so one bad slot cannot sink
// the batch.
func (w *generationWorker) runSlot(
	ctx context.Context,
	index int,
	config entity.GenerationConfig,
	outputDir string,
	invoke imageInvoker,
	notify func(workerEvent),
) {
	policy := retry.Policy{
		MaxAttempts: maxGenerationAttempts,
		Backoff:     retry.ExponentialBackoff(time.Second),
		IsRetryable: imagegen.IsTransient,
		OnRetry: func(attempt int, err error) {
			w.logger.Warn("generation", "transient failure, retrying slot", map[string]interface{}{
				"index":   index,
				"attempt": attempt,
				"error":   err.Error(),
			})
			notify(workerEvent{Retry: &retryNotice{
				Index:      index,
				Attempt:    attempt,
				MaxRetries: maxGenerationAttempts,
			}})
		},
	}

	var data []byte
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var invokeErr error
		data, invokeErr = invoke(ctx, index)
		return invokeErr
	})
	if err != nil {
		w.fail(index, err, notify)
		return
	}

	if config.EnforceGrayscale {
		if data, err = imagegen.ToGrayscale(data); err != nil {
			w.fail(index, fmt.Errorf("grayscale post-processing: %w", err), notify)
			return
		}
	}

	path := filepath.Join(outputDir, fmt.Sprintf(sketchFileFormat, index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		w.fail(index, fmt.Errorf("write sketch: %w", err), notify)
		return
	}

	notify(workerEvent{Outcome: &entity.GenerationOutcome{Index: index, ImagePath: &path}})
}

func (w *generationWorker) fail(index int, err error, notify func(workerEvent)) {
	w.logger.Error("generation", "image slot failed", map[string]interface{}{
		"index": index,
		"error": err.Error(),
	})
	msg := err.Error()
	notify(workerEvent{Outcome: &entity.GenerationOutcome{Index: index, Error: &msg}})
}
