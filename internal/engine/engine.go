// Package engine turns noisy per-frame face detections into a stable,
// deduplicated catalog of distinct people. It reconciles three imperfect
// signals — frame-local boxes, the tracker's transient IDs, and the
// attribute predictor's per-frame output — into durable person identities
// with stabilized attributes.
package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/your-org/facecat/internal/catalog"
	"github.com/your-org/facecat/internal/models"
	"github.com/your-org/facecat/internal/observability"
	"github.com/your-org/facecat/internal/track"
)

// AttributePredictor is the per-crop gender/age classifier. It must
// return the sentinel pair ("Unknown", "Unknown") for a nil or zero-area
// crop rather than fail.
type AttributePredictor interface {
	Predict(face image.Image) (gender, age string)
}

// FrameTracker assigns transient IDs to detections frame-to-frame. Only
// confirmed tracks are exposed.
type FrameTracker interface {
	Update(detections []models.Detection) []track.ConfirmedTrack
	Reset()
}

// EventSink receives capture events as processing discovers people.
type EventSink interface {
	Publish(ctx context.Context, ev models.CaptureEvent)
}

// Options tune the engine; zero values take the documented defaults.
type Options struct {
	Padding         int     // crop padding in pixels (default 20)
	StabilizeWindow int     // attribute vote window (default 3)
	MatchThreshold  float64 // re-identification acceptance (default 0.85)
	Sink            EventSink
	Source          string // label attached to emitted events
}

// Summary is the result of a finished processing run.
type Summary struct {
	FramesProcessed int                   `json:"frames_processed"`
	Records         []models.PersonRecord `json:"records"`
}

// Engine processes frames sequentially for one stream. It is not safe
// for concurrent use; a hosting system running multiple streams needs an
// engine per stream and a serialized view of the shared catalog.
type Engine struct {
	tracker   FrameTracker
	predictor AttributePredictor
	catalog   *catalog.Catalog
	states    *StateStore
	resolver  *Resolver
	padding   int
	sink      EventSink
	source    string
	frames    int
}

func New(tracker FrameTracker, predictor AttributePredictor, cat *catalog.Catalog, opts Options) *Engine {
	if opts.Padding == 0 {
		opts.Padding = 20
	}
	if opts.StabilizeWindow == 0 {
		opts.StabilizeWindow = 3
	}
	if opts.MatchThreshold == 0 {
		opts.MatchThreshold = 0.85
	}

	return &Engine{
		tracker:   tracker,
		predictor: predictor,
		catalog:   cat,
		states:    NewStateStore(opts.StabilizeWindow),
		resolver:  NewResolver(cat, opts.MatchThreshold),
		padding:   opts.Padding,
		sink:      opts.Sink,
		source:    opts.Source,
	}
}

// SetSource sets the label attached to emitted capture events.
func (e *Engine) SetSource(source string) { e.source = source }

// ProcessFrame runs one frame through the tracker, updates or creates
// per-track state, resolves identities for newly appeared tracks, and
// returns the annotated frame. Component-local failures never abort the
// frame.
func (e *Engine) ProcessFrame(ctx context.Context, frame image.Image, detections []models.Detection) *image.RGBA {
	annotated := cloneRGBA(frame)
	frameW := annotated.Bounds().Dx()
	frameH := annotated.Bounds().Dy()

	confirmed := e.tracker.Update(detections)

	for _, tr := range confirmed {
		box := tr.Box.Pad(e.padding).Clamp(frameW, frameH)
		crop := cropImage(frame, box)

		gender, age := e.predictor.Predict(crop)
		raw := Attributes{Gender: gender, Age: age}

		isNew := !e.states.Has(tr.ID)
		stable := e.states.Upsert(tr.ID, box, raw)

		if isNew {
			rec, created := e.resolver.Resolve(ctx, crop, raw, time.Now())
			e.states.BindPerson(tr.ID, rec.ID)

			if e.sink != nil {
				evType := models.EventPersonMatched
				if created {
					evType = models.EventPersonCaptured
				}
				e.sink.Publish(ctx, models.CaptureEvent{
					Type:      evType,
					Person:    rec,
					Source:    e.source,
					Timestamp: time.Now(),
				})
			}
		}

		st, _ := e.states.Get(tr.ID)
		label := fmt.Sprintf("ID:%d %s %s", st.PersonID, stable.Gender, stable.Age)
		annotate(annotated, box, label)
	}

	e.frames++
	observability.FramesProcessed.Inc()
	observability.FacesDetected.Add(float64(len(detections)))

	return annotated
}

// FrameCount returns the number of frames processed since the last reset.
func (e *Engine) FrameCount() int { return e.frames }

// Catalog exposes the engine's person catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Finalize persists the catalog and returns the run summary.
func (e *Engine) Finalize(ctx context.Context) (*Summary, error) {
	if err := e.catalog.Persist(ctx); err != nil {
		return nil, err
	}
	return &Summary{
		FramesProcessed: e.frames,
		Records:         e.catalog.Records(),
	}, nil
}

// Reset clears all in-memory track state and the tracker, leaving the
// durable catalog untouched. The frame counter restarts.
func (e *Engine) Reset() {
	e.states.Reset()
	e.tracker.Reset()
	e.frames = 0
	slog.Debug("engine reset")
}

// ClearCatalog wipes the durable catalog and the resolver's caches. The
// next captured person gets durable ID 1 again.
func (e *Engine) ClearCatalog(ctx context.Context) error {
	if err := e.catalog.Clear(ctx); err != nil {
		return err
	}
	e.resolver.InvalidateCache()
	return nil
}
