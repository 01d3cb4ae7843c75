package engine

import (
	"context"

	"github.com/your-org/facecat/internal/models"
)

// MultiSink fans one capture event out to several sinks.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, ev models.CaptureEvent) {
	for _, s := range m {
		s.Publish(ctx, ev)
	}
}
