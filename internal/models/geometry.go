package models

// Box is an axis-aligned bounding box in pixel coordinates.
// Invariant after Clamp: X1 < X2 and Y1 < Y2 within the frame bounds,
// unless the box is degenerate (Empty returns true).
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (b Box) Width() int  { return b.X2 - b.X1 }
func (b Box) Height() int { return b.Y2 - b.Y1 }

// Empty reports whether the box has zero (or negative) area.
func (b Box) Empty() bool { return b.X2 <= b.X1 || b.Y2 <= b.Y1 }

// Area returns the box area; 0 for degenerate boxes.
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// Pad grows the box by pad pixels on every side.
func (b Box) Pad(pad int) Box {
	return Box{X1: b.X1 - pad, Y1: b.Y1 - pad, X2: b.X2 + pad, Y2: b.Y2 + pad}
}

// Clamp restricts the box to a frame of the given dimensions.
func (b Box) Clamp(frameW, frameH int) Box {
	if b.X1 < 0 {
		b.X1 = 0
	}
	if b.Y1 < 0 {
		b.Y1 = 0
	}
	if b.X2 > frameW {
		b.X2 = frameW
	}
	if b.Y2 > frameH {
		b.Y2 = frameH
	}
	return b
}

// IoU computes intersection-over-union between two boxes.
func (b Box) IoU(o Box) float64 {
	x1 := max(b.X1, o.X1)
	y1 := max(b.Y1, o.Y1)
	x2 := min(b.X2, o.X2)
	y2 := min(b.Y2, o.Y2)

	iw := x2 - x1
	ih := y2 - y1
	if iw <= 0 || ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := b.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Detection is a single face detection produced by the detector for one frame.
type Detection struct {
	Box        Box     `json:"box"`
	Confidence float32 `json:"confidence"`
	Label      string  `json:"label"`
}
