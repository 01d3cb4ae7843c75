package models

import "testing"

func TestBoxPadClamp(t *testing.T) {
	tests := []struct {
		name   string
		box    Box
		pad    int
		frameW int
		frameH int
		want   Box
	}{
		{
			name:   "interior box pads freely",
			box:    Box{X1: 50, Y1: 50, X2: 100, Y2: 100},
			pad:    20,
			frameW: 640, frameH: 480,
			want: Box{X1: 30, Y1: 30, X2: 120, Y2: 120},
		},
		{
			name:   "padding clamps at frame edges",
			box:    Box{X1: 10, Y1: 5, X2: 635, Y2: 478},
			pad:    20,
			frameW: 640, frameH: 480,
			want: Box{X1: 0, Y1: 0, X2: 640, Y2: 480},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Pad(tt.pad).Clamp(tt.frameW, tt.frameH); got != tt.want {
				t.Errorf("Pad(%d).Clamp() = %+v, want %+v", tt.pad, got, tt.want)
			}
		})
	}
}

func TestBoxEmptyAndArea(t *testing.T) {
	if (Box{X1: 10, Y1: 10, X2: 10, Y2: 40}).Empty() != true {
		t.Error("zero-width box should be empty")
	}
	if (Box{X1: 40, Y1: 10, X2: 10, Y2: 40}).Area() != 0 {
		t.Error("inverted box should have zero area")
	}
	if got := (Box{X1: 0, Y1: 0, X2: 4, Y2: 5}).Area(); got != 20 {
		t.Errorf("Area() = %d, want 20", got)
	}
}

func TestBoxIoU(t *testing.T) {
	a := Box{X1: 0, Y1: 0, X2: 10, Y2: 10}

	if got := a.IoU(a); got != 1 {
		t.Errorf("IoU of identical boxes = %v, want 1", got)
	}
	if got := a.IoU(Box{X1: 20, Y1: 20, X2: 30, Y2: 30}); got != 0 {
		t.Errorf("IoU of disjoint boxes = %v, want 0", got)
	}
	// 10x10 boxes offset by 5: intersection 25, union 175.
	if got := a.IoU(Box{X1: 5, Y1: 5, X2: 15, Y2: 15}); got != 25.0/175.0 {
		t.Errorf("IoU of overlapping boxes = %v, want %v", got, 25.0/175.0)
	}
}
