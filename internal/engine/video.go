package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/your-org/facecat/internal/ingest"
	"github.com/your-org/facecat/internal/models"
	"github.com/your-org/facecat/internal/observability"
)

// FaceDetector finds faces in a decoded frame.
type FaceDetector interface {
	Detect(frame image.Image) ([]models.Detection, error)
}

// Runner drives the engine over a whole video file: probe, decode,
// per-frame processing, annotated re-encode, catalog persist.
type Runner struct {
	engine   *Engine
	detector FaceDetector
}

func NewRunner(e *Engine, detector FaceDetector) *Runner {
	return &Runner{engine: e, detector: detector}
}

// ProcessVideo processes every frame of inputPath in decode order and
// writes the annotated video to outputPath. The catalog is persisted when
// the run ends, including after a context cancellation: an abort takes
// effect at a frame boundary and partial results remain valid.
func (r *Runner) ProcessVideo(ctx context.Context, inputPath, outputPath string) (*Summary, error) {
	_, _, fps, err := ingest.Probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	writer, err := ingest.NewWriter(ctx, outputPath, fps)
	if err != nil {
		return nil, err
	}

	r.engine.SetSource(inputPath)

	frames := 0
	runErr := ingest.ReadFrames(ctx, inputPath, func(frameData []byte) error {
		img, err := jpeg.Decode(bytes.NewReader(frameData))
		if err != nil {
			slog.Warn("decode frame", "frame", frames, "error", err)
			return nil // skip unreadable frame, keep the run alive
		}

		start := time.Now()
		detections, err := r.detector.Detect(img)
		if err != nil {
			return fmt.Errorf("detect faces: %w", err)
		}
		observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())

		annotated := r.engine.ProcessFrame(ctx, img, detections)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: 90}); err != nil {
			return fmt.Errorf("encode annotated frame: %w", err)
		}
		if err := writer.WriteFrame(buf.Bytes()); err != nil {
			return err
		}

		frames++
		if frames%30 == 0 {
			slog.Debug("processing video", "input", inputPath, "frames", frames)
		}
		return nil
	})

	if err := writer.Close(); err != nil {
		slog.Warn("finish output video", "output", outputPath, "error", err)
	}

	summary, finErr := r.engine.Finalize(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return summary, fmt.Errorf("process video %s: %w", inputPath, runErr)
	}
	if finErr != nil {
		return summary, finErr
	}

	slog.Info("video processed",
		"input", inputPath,
		"output", outputPath,
		"frames", frames,
		"catalog_size", r.engine.Catalog().Len(),
	)

	return summary, nil
}
