package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"photosense-backend/internal/models"
)

const boxThickness = 2

var boxColors = []color.NRGBA{
	{R: 235, G: 64, B: 52, A: 255},
	{R: 52, G: 168, B: 83, A: 255},
	{R: 66, G: 133, B: 244, A: 255},
	{R: 251, G: 188, B: 5, A: 255},
	{R: 171, G: 71, B: 188, A: 255},
}

// Annotate draws each detected object's bounding box and label onto a copy
// of the image. The source is never modified.
func Annotate(src *image.NRGBA, objects []models.DetectedObject) (annotated *image.NRGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			annotated = nil
			err = fmt.Errorf("annotation panic: %v", r)
		}
	}()

	canvas := imaging.Clone(src)
	bounds := canvas.Bounds()

	for i, obj := range objects {
		c := boxColors[i%len(boxColors)]
		rect := image.Rect(obj.Box[0], obj.Box[1], obj.Box[0]+obj.Box[2], obj.Box[1]+obj.Box[3])
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}

		drawRect(canvas, rect, c)
		drawLabel(canvas, obj.Label, rect, c)
	}

	return canvas, nil
}

func drawRect(img *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	for t := 0; t < boxThickness; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setPixel(img, x, rect.Min.Y+t, c)
			setPixel(img, x, rect.Max.Y-1-t, c)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			setPixel(img, rect.Min.X+t, y, c)
			setPixel(img, rect.Max.X-1-t, y, c)
		}
	}
}

func drawLabel(img *image.NRGBA, label string, rect image.Rectangle, c color.NRGBA) {
	face := basicfont.Face7x13
	// Above the box when there is room, inside it otherwise.
	y := rect.Min.Y - 4
	if y-face.Ascent < img.Bounds().Min.Y {
		y = rect.Min.Y + face.Height + 2
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(rect.Min.X, y),
	}
	d.DrawString(label)
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}
