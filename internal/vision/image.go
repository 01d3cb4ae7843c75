package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// toCHW resamples an image to targetW×targetH and converts it to CHW
// float32 with per-channel mean/std normalization:
//
//	pixel = (pixel - mean) / std
func toCHW(img image.Image, targetW, targetH int, mean, std [3]float32) []float32 {
	resized := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Src, nil)

	data := make([]float32, 3*targetH*targetW)
	for y := 0; y < targetH; y++ {
		for x := 0; x < targetW; x++ {
			i := resized.PixOffset(x, y)
			rf := float32(resized.Pix[i])
			gf := float32(resized.Pix[i+1])
			bf := float32(resized.Pix[i+2])

			idx := y*targetW + x
			data[0*targetH*targetW+idx] = (rf - mean[0]) / std[0]
			data[1*targetH*targetW+idx] = (gf - mean[1]) / std[1]
			data[2*targetH*targetW+idx] = (bf - mean[2]) / std[2]
		}
	}
	return data
}
