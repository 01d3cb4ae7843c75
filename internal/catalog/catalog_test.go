package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/your-org/facecat/internal/models"
)

type fakeFaces struct {
	objects map[string][]byte
	removed []string
}

func newFakeFaces() *fakeFaces {
	return &fakeFaces{objects: make(map[string][]byte)}
}

func (f *fakeFaces) Put(ctx context.Context, personID int, data []byte) (string, error) {
	ref := fmt.Sprintf("person_%d.jpg", personID)
	f.objects[ref] = data
	return ref, nil
}

func (f *fakeFaces) Get(ctx context.Context, ref string) ([]byte, error) {
	data, ok := f.objects[ref]
	if !ok {
		return nil, fmt.Errorf("artifact %s not found", ref)
	}
	return data, nil
}

func (f *fakeFaces) Remove(ctx context.Context, ref string) error {
	delete(f.objects, ref)
	f.removed = append(f.removed, ref)
	return nil
}

func testRecords() []models.PersonRecord {
	base := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	return []models.PersonRecord{
		{ID: 1, ImageRef: "person_1.jpg", Gender: "Male", Age: "(20-29)", FirstSeen: base},
		{ID: 2, ImageRef: "person_2.jpg", Gender: "Female", Age: "(13-19)", FirstSeen: base.Add(3 * time.Second)},
		{ID: 5, ImageRef: "", Gender: "Unknown", Age: "Unknown", FirstSeen: base.Add(9 * time.Second)},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detections.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	want := testRecords()
	if err := store.Persist(ctx, want); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("loaded %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Gender != want[i].Gender ||
			got[i].Age != want[i].Age || got[i].ImageRef != want[i].ImageRef ||
			!got[i].FirstSeen.Equal(want[i].FirstSeen) {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFileStoreMissingFileIsEmptyCatalog(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "never-written.json"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("loaded %d records from a missing file, want 0", len(records))
	}
}

func TestFileStoreRejectsCorruptState(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"not": "a list"`},
		{"wrong shape", `{"not": "a list"}`},
		{"duplicate ids", `[{"id":1},{"id":1}]`},
		{"decreasing ids", `[{"id":2},{"id":1}]`},
		{"non-positive id", `[{"id":0}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "detections.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			store, err := NewFileStore(path)
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			if _, err := store.Load(context.Background()); err == nil {
				t.Error("Load accepted corrupt state, want an error")
			}
		})
	}
}

func TestCatalogCaptureAllocatesIncreasingIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detections.json")
	store, _ := NewFileStore(path)
	faces := newFakeFaces()
	ctx := context.Background()

	cat, err := Open(ctx, store, faces)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	r1 := cat.Capture(ctx, []byte("jpeg-1"), "Male", "(20-29)", time.Now(), nil)
	r2 := cat.Capture(ctx, []byte("jpeg-2"), "Female", "(13-19)", time.Now(), nil)
	if r1.ID != 1 || r2.ID != 2 {
		t.Fatalf("IDs = %d, %d; want 1, 2", r1.ID, r2.ID)
	}
	if r1.ImageRef == "" || r2.ImageRef == "" {
		t.Error("captures with image data should record artifact references")
	}

	if err := cat.Persist(ctx); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// Reopen: numbering continues from the persisted maximum.
	cat2, err := Open(ctx, store, faces)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if cat2.Len() != 2 {
		t.Fatalf("reopened catalog size = %d, want 2", cat2.Len())
	}
	r3 := cat2.Capture(ctx, []byte("jpeg-3"), "Male", "(40-49)", time.Now(), nil)
	if r3.ID != 3 {
		t.Errorf("post-reload ID = %d, want 3", r3.ID)
	}
}

func TestCatalogCaptureWithoutImageData(t *testing.T) {
	store, _ := NewFileStore(filepath.Join(t.TempDir(), "detections.json"))
	cat, err := Open(context.Background(), store, newFakeFaces())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rec := cat.Capture(context.Background(), nil, "Unknown", "Unknown", time.Now(), nil)
	if rec.ImageRef != "" {
		t.Errorf("ImageRef = %q, want empty for a capture with no image data", rec.ImageRef)
	}
	if rec.ID != 1 {
		t.Errorf("ID = %d, want 1", rec.ID)
	}
}

func TestCatalogGet(t *testing.T) {
	store := &stubStore{records: testRecords()}
	cat, err := Open(context.Background(), store, newFakeFaces())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rec, ok := cat.Get(2)
	if !ok || rec.Gender != "Female" {
		t.Errorf("Get(2) = (%+v, %v), want the female record", rec, ok)
	}
	if _, ok := cat.Get(3); ok {
		t.Error("Get(3) found a record for a gap ID")
	}
}

func TestCatalogClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detections.json")
	store, _ := NewFileStore(path)
	faces := newFakeFaces()
	ctx := context.Background()

	cat, err := Open(ctx, store, faces)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cat.Capture(ctx, []byte("jpeg-1"), "Male", "(20-29)", time.Now(), nil)
	cat.Capture(ctx, nil, "Unknown", "Unknown", time.Now(), nil)
	if err := cat.Persist(ctx); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if err := cat.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if cat.Len() != 0 {
		t.Errorf("catalog size after clear = %d, want 0", cat.Len())
	}
	if len(faces.removed) != 1 {
		t.Errorf("removed artifacts = %v, want exactly the one record that had an image", faces.removed)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("persisted catalog file should be gone after clear")
	}

	// Numbering restarts at 1.
	rec := cat.Capture(ctx, []byte("jpeg-new"), "Female", "(7-12)", time.Now(), nil)
	if rec.ID != 1 {
		t.Errorf("post-clear ID = %d, want 1", rec.ID)
	}
}

// stubStore serves a fixed record set.
type stubStore struct {
	records []models.PersonRecord
}

func (s *stubStore) Load(ctx context.Context) ([]models.PersonRecord, error) {
	return s.records, nil
}
func (s *stubStore) Persist(ctx context.Context, records []models.PersonRecord) error { return nil }
func (s *stubStore) Clear(ctx context.Context) error                                  { return nil }
func (s *stubStore) Ping(ctx context.Context) error                                   { return nil }
func (s *stubStore) Close()                                                           {}
