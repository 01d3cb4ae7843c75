package track

import (
	"testing"

	"github.com/your-org/facecat/internal/models"
)

func det(x1, y1, x2, y2 int) models.Detection {
	return models.Detection{Box: models.Box{X1: x1, Y1: y1, X2: x2, Y2: y2}}
}

func TestTrackerAssignsAndKeepsIDs(t *testing.T) {
	tr := New(5, 1)

	first := tr.Update([]models.Detection{det(10, 10, 50, 50)})
	if len(first) != 1 {
		t.Fatalf("confirmed tracks = %d, want 1", len(first))
	}
	if first[0].ID != 1 {
		t.Errorf("first transient ID = %d, want 1", first[0].ID)
	}

	// Slightly moved box continues the same track.
	second := tr.Update([]models.Detection{det(14, 12, 54, 52)})
	if len(second) != 1 || second[0].ID != 1 {
		t.Fatalf("moved detection = %+v, want to continue track 1", second)
	}
	if (second[0].Box != models.Box{X1: 14, Y1: 12, X2: 54, Y2: 52}) {
		t.Errorf("track box = %+v, want the latest detection box", second[0].Box)
	}
}

func TestTrackerSeparateDetectionsGetSeparateIDs(t *testing.T) {
	tr := New(5, 1)

	confirmed := tr.Update([]models.Detection{
		det(10, 10, 50, 50),
		det(200, 10, 240, 50),
	})
	if len(confirmed) != 2 {
		t.Fatalf("confirmed tracks = %d, want 2", len(confirmed))
	}
	if confirmed[0].ID != 1 || confirmed[1].ID != 2 {
		t.Errorf("IDs = %d, %d; want ascending 1, 2", confirmed[0].ID, confirmed[1].ID)
	}
}

func TestTrackerRetiresAfterMaxAge(t *testing.T) {
	tr := New(2, 1)

	tr.Update([]models.Detection{det(10, 10, 50, 50)})

	// Track survives maxAge missed frames, unconfirmed while unseen.
	for i := 0; i < 2; i++ {
		if confirmed := tr.Update(nil); len(confirmed) != 0 {
			t.Fatalf("miss frame %d: confirmed = %d, want 0", i, len(confirmed))
		}
		if tr.ActiveCount() != 1 {
			t.Fatalf("miss frame %d: active = %d, want 1", i, tr.ActiveCount())
		}
	}

	// One more miss retires it.
	tr.Update(nil)
	if tr.ActiveCount() != 0 {
		t.Fatalf("active after retirement = %d, want 0", tr.ActiveCount())
	}

	// Re-entry is a fresh transient identity, never a recycled ID.
	confirmed := tr.Update([]models.Detection{det(10, 10, 50, 50)})
	if len(confirmed) != 1 || confirmed[0].ID != 2 {
		t.Errorf("re-entry track = %+v, want new ID 2", confirmed)
	}
}

func TestTrackerMinHitsConfirmation(t *testing.T) {
	tr := New(5, 3)

	if confirmed := tr.Update([]models.Detection{det(10, 10, 50, 50)}); len(confirmed) != 0 {
		t.Fatalf("1 hit: confirmed = %d, want 0", len(confirmed))
	}
	if confirmed := tr.Update([]models.Detection{det(11, 10, 51, 50)}); len(confirmed) != 0 {
		t.Fatalf("2 hits: confirmed = %d, want 0", len(confirmed))
	}
	confirmed := tr.Update([]models.Detection{det(12, 10, 52, 50)})
	if len(confirmed) != 1 {
		t.Fatalf("3 hits: confirmed = %d, want 1", len(confirmed))
	}
}

func TestTrackerConfirmedOnlyWhenSightedThisFrame(t *testing.T) {
	tr := New(5, 1)

	tr.Update([]models.Detection{det(10, 10, 50, 50)})
	confirmed := tr.Update(nil)
	if len(confirmed) != 0 {
		t.Errorf("track missed this frame should not be reported, got %+v", confirmed)
	}
}

func TestTrackerResetKeepsIDsIncreasing(t *testing.T) {
	tr := New(5, 1)

	tr.Update([]models.Detection{det(10, 10, 50, 50)})
	tr.Reset()

	if tr.ActiveCount() != 0 {
		t.Fatalf("active after reset = %d, want 0", tr.ActiveCount())
	}

	confirmed := tr.Update([]models.Detection{det(10, 10, 50, 50)})
	if len(confirmed) != 1 || confirmed[0].ID != 2 {
		t.Errorf("post-reset track = %+v, want ID 2 (IDs never restart within a process)", confirmed)
	}
}
