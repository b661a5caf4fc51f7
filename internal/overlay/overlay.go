// Package overlay draws the match decision onto a frame for display.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/kozaktomas/attendance-cam/internal/decision"
	"github.com/kozaktomas/attendance-cam/internal/gallery"
	"github.com/kozaktomas/attendance-cam/internal/recognition"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	boxThickness = 2
	labelOffset  = 10
)

// Accepted is the color of an accepted face box and label.
var Accepted = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// Renderer draws bounding boxes and labels.
type Renderer struct {
	face  font.Face
	color color.Color
}

// New creates a renderer using the built-in 7x13 bitmap font.
func New() *Renderer {
	return &Renderer{face: basicfont.Face7x13, color: Accepted}
}

// Label is the text drawn above an accepted face.
func Label(identity string, confidence float64) string {
	return fmt.Sprintf("%s (%.1f%%)", gallery.DisplayName(identity), confidence)
}

// Render returns a copy of img annotated with the decision. Only accepted
// matches are drawn.
func (r *Renderer) Render(img image.Image, res decision.Result) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	if !res.Accepted {
		return dst
	}

	box := toRect(res.Candidate.Box).Intersect(dst.Bounds())
	if box.Empty() {
		return dst
	}
	r.drawBox(dst, box)
	r.drawLabel(dst, box, Label(res.Candidate.Identity, res.Confidence))
	return dst
}

func (r *Renderer) drawBox(dst *image.RGBA, box image.Rectangle) {
	src := image.NewUniform(r.color)
	t := boxThickness
	edges := []image.Rectangle{
		image.Rect(box.Min.X, box.Min.Y, box.Max.X, box.Min.Y+t),
		image.Rect(box.Min.X, box.Max.Y-t, box.Max.X, box.Max.Y),
		image.Rect(box.Min.X, box.Min.Y, box.Min.X+t, box.Max.Y),
		image.Rect(box.Max.X-t, box.Min.Y, box.Max.X, box.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(box), src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text above the box, or just inside its top edge when
// there is no room above.
func (r *Renderer) drawLabel(dst *image.RGBA, box image.Rectangle, text string) {
	ascent := r.face.Metrics().Ascent.Ceil()
	y := box.Min.Y - labelOffset
	if y-ascent < 0 {
		y = box.Min.Y + boxThickness + ascent
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.color),
		Face: r.face,
		Dot:  fixed.P(box.Min.X, y),
	}
	d.DrawString(text)
}

func toRect(reg recognition.Region) image.Rectangle {
	return image.Rect(reg.X, reg.Y, reg.X+reg.W, reg.Y+reg.H)
}
