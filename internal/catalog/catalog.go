// Package catalog owns the durable set of person records: the single
// source of truth for who has been seen, loaded wholesale at startup and
// rewritten wholesale after each processing run.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/your-org/facecat/internal/models"
	"github.com/your-org/facecat/internal/observability"
)

// Catalog is the in-memory view of the person-record collection plus the
// durable ID allocator. Records are append-only; Clear is the only
// deletion path. Reads may be concurrent; writes are serialized.
type Catalog struct {
	mu     sync.RWMutex
	store  Store
	faces  FaceStore
	items  []models.PersonRecord
	nextID int
}

// Open loads the full catalog from the store. A load failure is fatal to
// the caller: the catalog never guesses around malformed persisted state.
func Open(ctx context.Context, store Store, faces FaceStore) (*Catalog, error) {
	records, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	// next ID = 1 + max existing ID, computed once here and only
	// incremented in memory afterwards.
	nextID := 1
	if n := len(records); n > 0 {
		nextID = records[n-1].ID + 1
	}

	observability.CatalogSize.Set(float64(len(records)))

	return &Catalog{
		store:  store,
		faces:  faces,
		items:  records,
		nextID: nextID,
	}, nil
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Records returns a copy of all records in insertion order.
func (c *Catalog) Records() []models.PersonRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.PersonRecord, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the record with the given durable ID, or false.
func (c *Catalog) Get(id int) (models.PersonRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.items {
		if r.ID == id {
			return r, true
		}
	}
	return models.PersonRecord{}, false
}

// Capture allocates the next durable ID, stores the face artifact, and
// appends a new record. imageData may be empty (degenerate crop): the
// record is still created, with no artifact and an empty image reference.
// The appended record is returned; it is immutable from here on.
func (c *Catalog) Capture(ctx context.Context, imageData []byte, gender, age string, firstSeen time.Time, sig []float32) models.PersonRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++

	ref := ""
	if len(imageData) > 0 {
		var err error
		ref, err = c.faces.Put(ctx, id, imageData)
		if err != nil {
			slog.Warn("store face artifact", "person_id", id, "error", err)
			ref = ""
		}
	}

	rec := models.PersonRecord{
		ID:        id,
		ImageRef:  ref,
		Gender:    gender,
		Age:       age,
		FirstSeen: firstSeen.Truncate(time.Second),
		Signature: sig,
	}
	c.items = append(c.items, rec)
	observability.CatalogSize.Set(float64(len(c.items)))

	return rec
}

// FaceImage reads the representative image for a record by its reference.
func (c *Catalog) FaceImage(ctx context.Context, ref string) ([]byte, error) {
	return c.faces.Get(ctx, ref)
}

// Persist rewrites the whole catalog to the durable store.
func (c *Catalog) Persist(ctx context.Context) error {
	c.mu.RLock()
	records := make([]models.PersonRecord, len(c.items))
	copy(records, c.items)
	c.mu.RUnlock()

	if err := c.store.Persist(ctx, records); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	return nil
}

// Clear removes every record, every face artifact, and the persisted
// state. This is the only deletion path; ID numbering restarts at 1.
func (c *Catalog) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.items {
		if r.ImageRef == "" {
			continue
		}
		if err := c.faces.Remove(ctx, r.ImageRef); err != nil {
			slog.Warn("remove face artifact", "ref", r.ImageRef, "error", err)
		}
	}

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}

	c.items = nil
	c.nextID = 1
	observability.CatalogSize.Set(0)

	return nil
}
