package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clairexuu/SWAG-Golf/internal/entity"
	"github.com/clairexuu/SWAG-Golf/pkg/imagegen"
)

func workerBatchConfig(n int, outputDir string) entity.GenerationConfig {
	return entity.GenerationConfig{
		NumImages:   n,
		Resolution:  [2]int{64, 64},
		OutputDir:   outputDir,
		ModelName:   "test-image-model",
		AspectRatio: "1:1",
	}
}

func coloredPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.RGBA{R: uint8(40 * x), G: uint8(80 * y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return buf.Bytes()
}

func TestRunBatchWritesSlotIndexedFiles(t *testing.T) {
	dir := t.TempDir()
	w := newGenerationWorker(nil, noopLogger{})

	invoke := func(_ context.Context, index int) ([]byte, error) {
		return []byte(fmt.Sprintf("slot-%d", index)), nil
	}

	images, imageErrors, err := w.runBatch(context.Background(), workerBatchConfig(4, dir), dir, invoke, nil)
	if err != nil {
		t.Fatalf("runBatch() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		if imageErrors[i] != nil {
			t.Errorf("slot %d error = %q", i, *imageErrors[i])
		}
		if images[i] == nil {
			t.Fatalf("slot %d produced no image", i)
		}
		want := filepath.Join(dir, fmt.Sprintf("sketch_%d.png", i))
		if *images[i] != want {
			t.Errorf("slot %d path = %q, want %q", i, *images[i], want)
		}
		raw, err := os.ReadFile(want)
		if err != nil {
			t.Fatalf("read slot %d: %v", i, err)
		}
		if string(raw) != fmt.Sprintf("slot-%d", i) {
			t.Errorf("slot %d content = %q, slots must not swap payloads", i, raw)
		}
	}
}

func TestRunBatchRetriesTransientThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	w := newGenerationWorker(nil, noopLogger{})

	var calls atomic.Int32
	invoke := func(context.Context, int) ([]byte, error) {
		if calls.Add(1) <= 2 {
			return nil, &imagegen.TransientError{Err: errors.New("429 resource exhausted")}
		}
		return []byte("ok"), nil
	}

	var retries []retryNotice
	onEvent := func(ev workerEvent) error {
		if ev.Retry != nil {
			retries = append(retries, *ev.Retry)
		}
		return nil
	}

	images, imageErrors, err := w.runBatch(context.Background(), workerBatchConfig(1, dir), dir, invoke, onEvent)
	if err != nil {
		t.Fatalf("runBatch() error = %v", err)
	}
	if images[0] == nil {
		t.Fatalf("slot failed after retries: %v", *imageErrors[0])
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("model called %d times, want 3", got)
	}
	if len(retries) != 2 {
		t.Fatalf("retry notices = %+v, want 2", retries)
	}
	for i, r := range retries {
		if r.Index != 0 || r.Attempt != i+1 || r.MaxRetries != 3 {
			t.Errorf("retry %d = %+v", i, r)
		}
	}
}

func TestRunBatchGivesUpAfterMaxAttempts(t *testing.T) {
	dir := t.TempDir()
	w := newGenerationWorker(nil, noopLogger{})

	var calls atomic.Int32
	invoke := func(context.Context, int) ([]byte, error) {
		calls.Add(1)
		return nil, &imagegen.TransientError{Err: errors.New("429 resource exhausted")}
	}

	images, imageErrors, err := w.runBatch(context.Background(), workerBatchConfig(1, dir), dir, invoke, nil)
	if err != nil {
		t.Fatalf("runBatch() error = %v, exhausted slots fail in place", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("model called %d times, want 3 attempts then give up", got)
	}
	if images[0] != nil {
		t.Error("exhausted slot still produced an image")
	}
	if imageErrors[0] == nil || !strings.Contains(*imageErrors[0], "429") {
		t.Errorf("slot error = %v", imageErrors[0])
	}
}

func TestRunBatchTerminalErrorFailsFast(t *testing.T) {
	dir := t.TempDir()
	w := newGenerationWorker(nil, noopLogger{})

	var calls atomic.Int32
	invoke := func(context.Context, int) ([]byte, error) {
		calls.Add(1)
		return nil, &imagegen.TerminalError{Err: errors.New("safety rejection")}
	}

	retryFrames := 0
	onEvent := func(ev workerEvent) error {
		if ev.Retry != nil {
			retryFrames++
		}
		return nil
	}

	images, imageErrors, err := w.runBatch(context.Background(), workerBatchConfig(1, dir), dir, invoke, onEvent)
	if err != nil {
		t.Fatalf("runBatch() error = %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("model called %d times, terminal failures must not retry", got)
	}
	if retryFrames != 0 {
		t.Errorf("%d retry notices for a terminal failure", retryFrames)
	}
	if images[0] != nil || imageErrors[0] == nil || !strings.Contains(*imageErrors[0], "safety rejection") {
		t.Errorf("slot outcome: image = %v, error = %v", images[0], imageErrors[0])
	}
}

func TestRunBatchAppliesGrayscale(t *testing.T) {
	dir := t.TempDir()
	w := newGenerationWorker(nil, noopLogger{})

	config := workerBatchConfig(1, dir)
	config.EnforceGrayscale = true

	payload := coloredPNG(t)
	invoke := func(context.Context, int) ([]byte, error) {
		return payload, nil
	}

	images, imageErrors, err := w.runBatch(context.Background(), config, dir, invoke, nil)
	if err != nil {
		t.Fatalf("runBatch() error = %v", err)
	}
	if images[0] == nil {
		t.Fatalf("slot failed: %v", *imageErrors[0])
	}

	raw, err := os.ReadFile(*images[0])
	if err != nil {
		t.Fatalf("read sketch: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("written sketch is not a png: %v", err)
	}
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != g || g != b {
				t.Fatalf("pixel (%d,%d) = %d/%d/%d, want gray", x, y, r, g, b)
			}
		}
	}
}

func TestRunBatchGrayscaleRejectsUndecodableBytes(t *testing.T) {
	dir := t.TempDir()
	w := newGenerationWorker(nil, noopLogger{})

	config := workerBatchConfig(1, dir)
	config.EnforceGrayscale = true

	invoke := func(context.Context, int) ([]byte, error) {
		return []byte("not an image"), nil
	}

	images, imageErrors, err := w.runBatch(context.Background(), config, dir, invoke, nil)
	if err != nil {
		t.Fatalf("runBatch() error = %v", err)
	}
	if images[0] != nil {
		t.Error("undecodable payload still produced an image")
	}
	if imageErrors[0] == nil || !strings.Contains(*imageErrors[0], "grayscale") {
		t.Errorf("slot error = %v, want a grayscale post-processing failure", imageErrors[0])
	}
}

func TestRunBatchEmitErrorCancelsRemainingSlots(t *testing.T) {
	dir := t.TempDir()
	w := newGenerationWorker(nil, noopLogger{})

	errClientGone := errors.New("client gone")
	invoke := func(ctx context.Context, index int) ([]byte, error) {
		if index == 0 {
			return []byte("fast"), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
			return []byte("slow"), nil
		}
	}

	onEvent := func(workerEvent) error { return errClientGone }

	start := time.Now()
	_, _, err := w.runBatch(context.Background(), workerBatchConfig(3, dir), dir, invoke, onEvent)
	if !errors.Is(err, errClientGone) {
		t.Fatalf("runBatch() error = %v, want the emit error", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("batch ran %v after the consumer died, cancellation did not reach the workers", elapsed)
	}
}
