// Package track implements the multi-object face tracker that assigns
// transient integer IDs to per-frame detections. IDs persist while a face
// keeps matching frame to frame and are retired after a miss-window; a
// person leaving and re-entering the frame gets a fresh ID. Durable
// identity across re-entry is the resolver's job, not the tracker's.
package track

import (
	"sort"

	"github.com/your-org/facecat/internal/models"
)

// minMatchIoU is the minimum overlap for a detection to continue a track.
const minMatchIoU = 0.3

// ConfirmedTrack is a track exposed to the engine: it has been sighted at
// least MinHits times and was matched in the current frame.
type ConfirmedTrack struct {
	ID  int
	Box models.Box
}

type trackState struct {
	id              int
	box             models.Box
	hits            int
	timeSinceUpdate int
}

// Tracker matches detections to tracks greedily by IoU.
type Tracker struct {
	tracks  map[int]*trackState
	nextID  int
	maxAge  int
	minHits int
}

// New creates a tracker. maxAge is the number of consecutive missed frames
// before a track is retired; minHits the sightings needed for confirmation.
func New(maxAge, minHits int) *Tracker {
	if maxAge < 1 {
		maxAge = 1
	}
	if minHits < 1 {
		minHits = 1
	}
	return &Tracker{
		tracks:  make(map[int]*trackState),
		maxAge:  maxAge,
		minHits: minHits,
	}
}

// Update matches the frame's detections to existing tracks, creates tracks
// for unmatched detections, retires stale tracks, and returns the confirmed
// tracks sighted in this frame in ascending ID order.
func (t *Tracker) Update(detections []models.Detection) []ConfirmedTrack {
	for _, tr := range t.tracks {
		tr.timeSinceUpdate++
	}

	trackList := make([]*trackState, 0, len(t.tracks))
	for _, tr := range t.tracks {
		trackList = append(trackList, tr)
	}
	// Stable matching order regardless of map iteration.
	sort.Slice(trackList, func(i, j int) bool { return trackList[i].id < trackList[j].id })

	matched := make(map[int]bool)
	detMatched := make(map[int]bool)

	for di, det := range detections {
		bestIoU := minMatchIoU
		var best *trackState

		for _, tr := range trackList {
			if matched[tr.id] {
				continue
			}
			if v := det.Box.IoU(tr.box); v > bestIoU {
				bestIoU = v
				best = tr
			}
		}

		if best != nil {
			best.box = det.Box
			best.hits++
			best.timeSinceUpdate = 0
			matched[best.id] = true
			detMatched[di] = true
		}
	}

	for di, det := range detections {
		if detMatched[di] {
			continue
		}
		t.nextID++
		t.tracks[t.nextID] = &trackState{
			id:   t.nextID,
			box:  det.Box,
			hits: 1,
		}
	}

	for id, tr := range t.tracks {
		if tr.timeSinceUpdate > t.maxAge {
			delete(t.tracks, id)
		}
	}

	var confirmed []ConfirmedTrack
	for _, tr := range t.tracks {
		if tr.timeSinceUpdate == 0 && tr.hits >= t.minHits {
			confirmed = append(confirmed, ConfirmedTrack{ID: tr.id, Box: tr.box})
		}
	}
	sort.Slice(confirmed, func(i, j int) bool { return confirmed[i].ID < confirmed[j].ID })

	return confirmed
}

// ActiveCount returns the number of live (confirmed or not) tracks.
func (t *Tracker) ActiveCount() int {
	return len(t.tracks)
}

// Reset discards all track state. Transient IDs keep increasing so an ID
// from before the reset is never handed out again within the process.
func (t *Tracker) Reset() {
	t.tracks = make(map[int]*trackState)
}
