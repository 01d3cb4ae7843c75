package engine

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/your-org/facecat/internal/models"
)

var (
	boxColor   = color.RGBA{G: 255, A: 255}          // green
	labelColor = color.RGBA{R: 255, G: 255, A: 255}  // yellow
)

const boxThickness = 2

// cloneRGBA copies any image into a mutable RGBA canvas.
func cloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// cropImage copies the boxed region out of the frame. Returns nil for a
// degenerate box.
func cropImage(img image.Image, box models.Box) image.Image {
	if box.Empty() {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, box.Width(), box.Height()))
	draw.Draw(dst, dst.Bounds(), img, image.Pt(b.Min.X+box.X1, b.Min.Y+box.Y1), draw.Src)
	return dst
}

// annotate draws the bounding box and its label onto the frame.
func annotate(dst *image.RGBA, box models.Box, label string) {
	drawRect(dst, box)
	drawLabel(dst, box.X1, box.Y1-6, label)
}

func drawRect(dst *image.RGBA, box models.Box) {
	for t := 0; t < boxThickness; t++ {
		for x := box.X1; x < box.X2; x++ {
			dst.Set(x, box.Y1+t, boxColor)
			dst.Set(x, box.Y2-1-t, boxColor)
		}
		for y := box.Y1; y < box.Y2; y++ {
			dst.Set(box.X1+t, y, boxColor)
			dst.Set(box.X2-1-t, y, boxColor)
		}
	}
}

func drawLabel(dst *image.RGBA, x, y int, text string) {
	if y < basicfont.Face7x13.Ascent {
		y = basicfont.Face7x13.Ascent
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
