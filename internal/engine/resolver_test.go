package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/your-org/facecat/internal/catalog"
	"github.com/your-org/facecat/internal/models"
)

// memStore keeps catalog records in memory.
type memStore struct {
	records []models.PersonRecord
}

func (s *memStore) Load(ctx context.Context) ([]models.PersonRecord, error) {
	out := make([]models.PersonRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *memStore) Persist(ctx context.Context, records []models.PersonRecord) error {
	s.records = make([]models.PersonRecord, len(records))
	copy(s.records, records)
	return nil
}

func (s *memStore) Clear(ctx context.Context) error {
	s.records = nil
	return nil
}

func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close()                         {}

// memFaces keeps face artifacts in memory.
type memFaces struct {
	objects map[string][]byte
	removed []string
}

func newMemFaces() *memFaces {
	return &memFaces{objects: make(map[string][]byte)}
}

func (f *memFaces) Put(ctx context.Context, personID int, data []byte) (string, error) {
	ref := fmt.Sprintf("person_%d.jpg", personID)
	f.objects[ref] = data
	return ref, nil
}

func (f *memFaces) Get(ctx context.Context, ref string) ([]byte, error) {
	data, ok := f.objects[ref]
	if !ok {
		return nil, fmt.Errorf("face artifact %s not found", ref)
	}
	return data, nil
}

func (f *memFaces) Remove(ctx context.Context, ref string) error {
	delete(f.objects, ref)
	f.removed = append(f.removed, ref)
	return nil
}

func openTestCatalog(t *testing.T, store catalog.Store) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(context.Background(), store, newMemFaces())
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	return cat
}

func TestResolverCapturesFirstPerson(t *testing.T) {
	cat := openTestCatalog(t, &memStore{})
	r := NewResolver(cat, 0.85)

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	rec, created := r.Resolve(context.Background(), gradientImage(100, 100), Attributes{Gender: "Male", Age: "(20-29)"}, now)

	if !created {
		t.Fatal("first resolve against an empty catalog should create a record")
	}
	if rec.ID != 1 {
		t.Errorf("first durable ID = %d, want 1", rec.ID)
	}
	if rec.Gender != "Male" || rec.Age != "(20-29)" {
		t.Errorf("record attributes = %q/%q, want Male/(20-29)", rec.Gender, rec.Age)
	}
	if !rec.FirstSeen.Equal(now) {
		t.Errorf("FirstSeen = %v, want %v", rec.FirstSeen, now)
	}
	if rec.ImageRef == "" {
		t.Error("a real crop should produce a face artifact reference")
	}
}

func TestResolverMatchesExistingPerson(t *testing.T) {
	cat := openTestCatalog(t, &memStore{})
	r := NewResolver(cat, 0.85)
	ctx := context.Background()

	face := gradientImage(100, 100)
	first, _ := r.Resolve(ctx, face, Attributes{Gender: "Male", Age: "(20-29)"}, time.Now())

	// Same face on a later track, even with different raw attributes.
	again, created := r.Resolve(ctx, face, Attributes{Gender: "Female", Age: "(30-39)"}, time.Now())

	if created {
		t.Fatal("identical face should match, not create a second record")
	}
	if again.ID != first.ID {
		t.Errorf("matched ID = %d, want %d", again.ID, first.ID)
	}
	if again.Gender != "Male" {
		t.Errorf("matched record keeps its capture-time attributes, got gender %q", again.Gender)
	}
	if cat.Len() != 1 {
		t.Errorf("catalog size = %d, want 1", cat.Len())
	}
}

func TestResolverCapturesDistinctPerson(t *testing.T) {
	cat := openTestCatalog(t, &memStore{})
	r := NewResolver(cat, 0.85)
	ctx := context.Background()

	r.Resolve(ctx, gradientImage(100, 100), Attributes{Gender: "Male", Age: "(20-29)"}, time.Now())
	rec, created := r.Resolve(ctx, twoToneImage(100, 100), Attributes{Gender: "Female", Age: "(13-19)"}, time.Now())

	if !created {
		t.Fatal("a dissimilar face should create a new record")
	}
	if rec.ID != 2 {
		t.Errorf("second durable ID = %d, want 2", rec.ID)
	}
}

func TestResolverReturnsFirstMatchInInsertionOrder(t *testing.T) {
	cat := openTestCatalog(t, &memStore{})
	ctx := context.Background()

	// Two records with identical signatures; the scan must stop at the
	// earlier one.
	sig := []float32(ComputeSignature(gradientImage(100, 100)))
	cat.Capture(ctx, nil, "Male", "(20-29)", time.Now(), sig)
	cat.Capture(ctx, nil, "Male", "(20-29)", time.Now(), sig)

	r := NewResolver(cat, 0.85)
	rec, created := r.Resolve(ctx, gradientImage(100, 100), Attributes{Gender: "Male", Age: "(20-29)"}, time.Now())

	if created {
		t.Fatal("expected a match, got a new record")
	}
	if rec.ID != 1 {
		t.Errorf("matched ID = %d, want the earliest catalogued identity 1", rec.ID)
	}
}

func TestResolverDegenerateCropStillAllocatesIdentity(t *testing.T) {
	cat := openTestCatalog(t, &memStore{})
	r := NewResolver(cat, 0.85)
	ctx := context.Background()

	rec, created := r.Resolve(ctx, nil, Attributes{Gender: AttrUnknown, Age: AttrUnknown}, time.Now())

	if !created {
		t.Fatal("degenerate crop should still create a record")
	}
	if rec.ID != 1 {
		t.Errorf("ID = %d, want 1", rec.ID)
	}
	if rec.ImageRef != "" {
		t.Errorf("degenerate crop should have no artifact, got ref %q", rec.ImageRef)
	}
	if rec.Gender != AttrUnknown || rec.Age != AttrUnknown {
		t.Errorf("attributes = %q/%q, want sentinel pair", rec.Gender, rec.Age)
	}

	// No signature means no matching: another degenerate crop is another person.
	rec2, created := r.Resolve(ctx, nil, Attributes{Gender: AttrUnknown, Age: AttrUnknown}, time.Now())
	if !created || rec2.ID != 2 {
		t.Errorf("second degenerate resolve = (id %d, created %v), want a new record with ID 2", rec2.ID, created)
	}
}

func TestResolverSkipsUnreadableStoredFace(t *testing.T) {
	// A record whose artifact is gone and whose signature was never
	// persisted cannot be compared; it is skipped, not fatal.
	store := &memStore{records: []models.PersonRecord{
		{ID: 1, ImageRef: "person_1.jpg", Gender: "Male", Age: "(20-29)", FirstSeen: time.Now()},
	}}
	cat := openTestCatalog(t, store)
	r := NewResolver(cat, 0.85)

	rec, created := r.Resolve(context.Background(), gradientImage(100, 100), Attributes{Gender: "Male", Age: "(20-29)"}, time.Now())

	if !created {
		t.Fatal("unreadable record should be skipped and a new record created")
	}
	if rec.ID != 2 {
		t.Errorf("new ID = %d, want 2 (numbering continues past the unreadable record)", rec.ID)
	}
}
