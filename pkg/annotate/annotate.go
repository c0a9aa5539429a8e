package annotate

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

var BoxColor = color.RGBA{R: 0, G: 255, B: 0, A: 255}

const (
	LineWidth = 2.0
	FontSize  = 20.0
	// LabelOffset is how far above the box's top edge the label baseline sits.
	LabelOffset = 10
)

// Box is a labelled rectangle to burn into an image.
type Box struct {
	Rect  image.Rectangle
	Label string
}

// Draw returns an RGBA copy of img with every box stroked and labelled.
// img itself is left untouched.
func Draw(img image.Image, boxes []Box) *image.RGBA {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: FontSize}))

	for _, b := range boxes {
		DrawRectangle(dc, b.Rect, BoxColor, LineWidth)
		DrawLabel(dc, b.Label, image.Pt(b.Rect.Min.X, b.Rect.Min.Y-LabelOffset), BoxColor)
	}

	return dc.Image().(*image.RGBA)
}

// DrawRectangle strokes r in the context's pixel space. The origin of gg's
// coordinate system is the image's top-left corner, not Bounds().Min.
func DrawRectangle(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// DrawLabel writes text with its baseline starting at p. Text falling outside
// the image is clipped.
func DrawLabel(dc *gg.Context, text string, p image.Point, c color.Color) {
	dc.SetColor(c)
	dc.DrawString(text, float64(p.X), float64(p.Y))
}
