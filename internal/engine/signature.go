package engine

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// The appearance signature is a luminance histogram over a fixed-size
// resample of the face crop. It is a deliberately simple re-identification
// signal; the crop → signature → scalar-similarity interface is the part
// to preserve when swapping in a learned embedding.
const (
	sigSample = 100 // resample edge length
	sigBins   = 256 // luminance histogram bins
)

// Signature is a comparable appearance fingerprint of a face crop.
type Signature []float32

// ComputeSignature resamples the crop to 100×100, converts to luminance
// and returns the 256-bin histogram. Returns nil for a nil or degenerate
// (zero-area) crop.
func ComputeSignature(img image.Image) Signature {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil
	}

	resized := image.NewRGBA(image.Rect(0, 0, sigSample, sigSample))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, b, draw.Src, nil)

	hist := make(Signature, sigBins)
	for y := 0; y < sigSample; y++ {
		for x := 0; x < sigSample; x++ {
			i := resized.PixOffset(x, y)
			r := resized.Pix[i]
			g := resized.Pix[i+1]
			bl := resized.Pix[i+2]
			// ITU-R BT.601 luma.
			lum := (299*uint32(r) + 587*uint32(g) + 114*uint32(bl)) / 1000
			hist[lum]++
		}
	}
	return hist
}

// Similarity computes the Pearson correlation between two signatures,
// in [-1, 1], higher meaning more similar. Mismatched lengths or a
// zero-variance signature yield 0 (no signal).
func Similarity(a, b Signature) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += float64(a[i])
		meanB += float64(b[i])
	}
	meanA /= n
	meanB /= n

	var num, varA, varB float64
	for i := range a {
		da := float64(a[i]) - meanA
		db := float64(b[i]) - meanB
		num += da * db
		varA += da * da
		varB += db * db
	}

	denom := math.Sqrt(varA * varB)
	if denom == 0 {
		return 0
	}
	return num / denom
}
