package engine

import (
	"github.com/your-org/facecat/internal/models"
)

// AttrUnknown is the sentinel attribute value the predictor returns for a
// degenerate crop. It participates in voting like any other value.
const AttrUnknown = "Unknown"

// Attributes is one gender/age-bucket prediction pair.
type Attributes struct {
	Gender string
	Age    string
}

// attrHistory is a fixed-capacity ring buffer of the most recent raw
// predictions for one attribute dimension.
type attrHistory struct {
	vals []string
	next int
	size int
}

func newAttrHistory(window int) *attrHistory {
	if window < 1 {
		window = 1
	}
	return &attrHistory{vals: make([]string, window)}
}

func (h *attrHistory) push(v string) {
	h.vals[h.next] = v
	h.next = (h.next + 1) % len(h.vals)
	if h.size < len(h.vals) {
		h.size++
	}
}

// ordered returns the buffered values oldest first.
func (h *attrHistory) ordered() []string {
	out := make([]string, 0, h.size)
	start := h.next - h.size
	if start < 0 {
		start += len(h.vals)
	}
	for i := 0; i < h.size; i++ {
		out = append(out, h.vals[(start+i)%len(h.vals)])
	}
	return out
}

// majority returns the most frequent value in the window. Ties break
// toward the value observed most recently among the tied set, so the
// result is deterministic.
func (h *attrHistory) majority() string {
	vals := h.ordered()
	if len(vals) == 0 {
		return ""
	}

	counts := make(map[string]int, len(vals))
	lastSeen := make(map[string]int, len(vals))
	for i, v := range vals {
		counts[v]++
		lastSeen[v] = i
	}

	best := vals[0]
	for _, v := range vals {
		if counts[v] > counts[best] {
			best = v
			continue
		}
		if counts[v] == counts[best] && lastSeen[v] > lastSeen[best] {
			best = v
		}
	}
	return best
}

// TrackState is the rolling per-transient-track state: last box, bounded
// attribute history, the stabilized pair, and the resolved durable person
// ID. It lives only as long as the tracker keeps reporting the track.
type TrackState struct {
	Box      models.Box
	PersonID int // durable ID; set once, immutable afterwards
	Stable   Attributes

	gender *attrHistory
	age    *attrHistory
}

// StateStore holds TrackState per transient track ID. All methods are for
// single-threaded use within one stream's processing loop.
type StateStore struct {
	window int
	tracks map[int]*TrackState
}

func NewStateStore(window int) *StateStore {
	if window < 1 {
		window = 1
	}
	return &StateStore{
		window: window,
		tracks: make(map[int]*TrackState),
	}
}

// Has reports whether the transient ID has been seen before.
func (s *StateStore) Has(id int) bool {
	_, ok := s.tracks[id]
	return ok
}

// Get returns the state for a transient ID.
func (s *StateStore) Get(id int) (*TrackState, bool) {
	st, ok := s.tracks[id]
	return st, ok
}

// Upsert records one sighting. A new ID gets a history seeded with the
// single raw observation (stabilized = raw); an existing ID appends the
// observation, dropping the oldest beyond the window, and recomputes the
// majority per dimension. The box always reflects the latest sighting:
// position is never smoothed, attributes are.
func (s *StateStore) Upsert(id int, box models.Box, raw Attributes) Attributes {
	st, ok := s.tracks[id]
	if !ok {
		st = &TrackState{
			gender: newAttrHistory(s.window),
			age:    newAttrHistory(s.window),
		}
		s.tracks[id] = st
	}

	st.Box = box
	st.gender.push(raw.Gender)
	st.age.push(raw.Age)
	st.Stable = Attributes{
		Gender: st.gender.majority(),
		Age:    st.age.majority(),
	}
	return st.Stable
}

// BindPerson sets the durable person ID for a track. The first binding
// wins; later calls are ignored (the mapping is immutable for the track's
// lifetime).
func (s *StateStore) BindPerson(id, personID int) {
	st, ok := s.tracks[id]
	if !ok || st.PersonID != 0 {
		return
	}
	st.PersonID = personID
}

// Count returns the number of live track states.
func (s *StateStore) Count() int {
	return len(s.tracks)
}

// Reset discards all track state. Durable records are unaffected.
func (s *StateStore) Reset() {
	s.tracks = make(map[int]*TrackState)
}
