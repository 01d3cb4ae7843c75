package engine

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/your-org/facecat/internal/catalog"
	"github.com/your-org/facecat/internal/models"
	"github.com/your-org/facecat/internal/observability"
)

// Resolver decides, for each newly appeared transient track, whether the
// face belongs to an already-catalogued person or is someone new. It is
// invoked exactly once per transient track, on first confirmed sighting.
type Resolver struct {
	catalog   *catalog.Catalog
	threshold float64
	// sigCache holds signatures computed from stored representative
	// images, keyed by durable person ID.
	sigCache map[int]Signature
}

func NewResolver(cat *catalog.Catalog, threshold float64) *Resolver {
	return &Resolver{
		catalog:   cat,
		threshold: threshold,
		sigCache:  make(map[int]Signature),
	}
}

// Resolve compares the face crop against every existing record in catalog
// insertion order and returns the first match above the threshold —
// first-match, not best-match: ties and near-ties favour the earliest
// catalogued identity. If nothing matches, a new durable record is
// captured. Always returns a valid person record; failures inside
// individual comparisons only skip that record.
//
// A degenerate crop (nil or zero area) still allocates an identity: the
// record is created with the raw (sentinel) attributes and no face
// artifact.
func (r *Resolver) Resolve(ctx context.Context, crop image.Image, raw Attributes, now time.Time) (models.PersonRecord, bool) {
	sig := ComputeSignature(crop)

	if sig != nil {
		for _, rec := range r.catalog.Records() {
			stored := r.signatureFor(ctx, rec)
			if stored == nil {
				continue // unreadable or missing artifact: skip, never abort
			}
			if Similarity(sig, stored) > r.threshold {
				observability.PersonsMatched.Inc()
				return rec, false
			}
		}
	}

	rec := r.catalog.Capture(ctx, encodeJPEG(crop), raw.Gender, raw.Age, now, sig)
	if sig != nil {
		r.sigCache[rec.ID] = sig
	}
	observability.PersonsCaptured.Inc()

	slog.Info("captured person",
		"person_id", rec.ID,
		"gender", rec.Gender,
		"age", rec.Age,
		"entry_time", rec.FirstSeen,
	)

	return rec, true
}

// signatureFor returns the appearance signature for a record, preferring
// the cache, then the signature persisted with the record, then a lazy
// recompute from the stored representative image.
func (r *Resolver) signatureFor(ctx context.Context, rec models.PersonRecord) Signature {
	if sig, ok := r.sigCache[rec.ID]; ok {
		return sig
	}
	if len(rec.Signature) == sigBins {
		sig := Signature(rec.Signature)
		r.sigCache[rec.ID] = sig
		return sig
	}
	if rec.ImageRef == "" {
		return nil
	}

	data, err := r.catalog.FaceImage(ctx, rec.ImageRef)
	if err != nil {
		slog.Warn("read stored face", "person_id", rec.ID, "ref", rec.ImageRef, "error", err)
		return nil
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			slog.Warn("decode stored face", "person_id", rec.ID, "ref", rec.ImageRef, "error", err)
			return nil
		}
	}

	sig := ComputeSignature(img)
	if sig != nil {
		r.sigCache[rec.ID] = sig
	}
	return sig
}

// InvalidateCache drops all cached signatures (after a catalog clear).
func (r *Resolver) InvalidateCache() {
	r.sigCache = make(map[int]Signature)
}

// encodeJPEG returns the crop as JPEG bytes, or nil for a crop that
// cannot be encoded (nil or zero area).
func encodeJPEG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil
	}
	return buf.Bytes()
}
