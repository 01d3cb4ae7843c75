package engine

import (
	"image"
	"image/color"
	"testing"
)

// gradientImage has a distinctive, spread-out luminance histogram.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// twoToneImage concentrates all mass in two histogram bins.
func twoToneImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if y >= h/2 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestComputeSignatureDegenerate(t *testing.T) {
	if sig := ComputeSignature(nil); sig != nil {
		t.Error("nil image should produce a nil signature")
	}
	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	if sig := ComputeSignature(empty); sig != nil {
		t.Error("zero-area image should produce a nil signature")
	}
}

func TestComputeSignatureShape(t *testing.T) {
	sig := ComputeSignature(gradientImage(120, 80))
	if len(sig) != sigBins {
		t.Fatalf("signature length = %d, want %d", len(sig), sigBins)
	}
	var total float32
	for _, v := range sig {
		total += v
	}
	if total != sigSample*sigSample {
		t.Errorf("histogram mass = %v, want %d", total, sigSample*sigSample)
	}
}

func TestSimilarity(t *testing.T) {
	a := ComputeSignature(gradientImage(100, 100))
	b := ComputeSignature(twoToneImage(100, 100))

	if got := Similarity(a, a); got < 0.999 {
		t.Errorf("self similarity = %v, want 1", got)
	}
	if got := Similarity(a, b); got > 0.85 {
		t.Errorf("similarity of unrelated images = %v, want below the match threshold", got)
	}
	if got := Similarity(a, b); got != Similarity(b, a) {
		t.Error("similarity should be symmetric")
	}
}

func TestSimilarityNoSignal(t *testing.T) {
	a := ComputeSignature(gradientImage(100, 100))

	if got := Similarity(nil, a); got != 0 {
		t.Errorf("Similarity(nil, a) = %v, want 0", got)
	}
	if got := Similarity(a, a[:10]); got != 0 {
		t.Errorf("mismatched lengths should yield 0, got %v", got)
	}

	// A flat histogram has zero variance, so correlation carries no signal.
	flat := make(Signature, sigBins)
	for i := range flat {
		flat[i] = 1
	}
	if got := Similarity(flat, flat); got != 0 {
		t.Errorf("zero-variance similarity = %v, want 0", got)
	}
}
