package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/kozaktomas/attendance-cam/internal/decision"
	"github.com/kozaktomas/attendance-cam/internal/matcher"
	"github.com/kozaktomas/attendance-cam/internal/recognition"
)

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0
	}
	return img
}

func isAccepted(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0 && g == 0xffff && b == 0
}

func TestRender_AcceptedDrawsBoxAndLabel(t *testing.T) {
	src := blank(200, 150)
	res := decision.Decide([]matcher.Candidate{{
		Identity: "alice",
		Distance: 0.2,
		Box:      recognition.Region{X: 50, Y: 60, W: 40, H: 50},
	}}, 0.45)

	out := New().Render(src, res)

	if !isAccepted(out.At(50, 60)) || !isAccepted(out.At(89, 109)) {
		t.Error("box corners not drawn")
	}
	if isAccepted(out.At(70, 85)) {
		t.Error("box interior must not be filled")
	}

	labelDrawn := false
	for y := 30; y < 60 && !labelDrawn; y++ {
		for x := 50; x < 150; x++ {
			if isAccepted(out.At(x, y)) {
				labelDrawn = true
				break
			}
		}
	}
	if !labelDrawn {
		t.Error("label not drawn above the box")
	}
	if src.At(50, 60) != (color.RGBA{}) {
		t.Error("source frame modified")
	}
}

func TestRender_RejectedLeavesFrame(t *testing.T) {
	src := blank(100, 100)
	res := decision.Decide([]matcher.Candidate{{
		Identity: "bob",
		Distance: 0.8,
		Box:      recognition.Region{X: 10, Y: 10, W: 30, H: 30},
	}}, 0.45)

	out := New().Render(src, res)
	for y := range 100 {
		for x := range 100 {
			if isAccepted(out.At(x, y)) {
				t.Fatalf("pixel (%d,%d) drawn for a rejected match", x, y)
			}
		}
	}
}

func TestRender_BoxOutsideFrame(t *testing.T) {
	res := decision.Decide([]matcher.Candidate{{
		Identity: "carol",
		Distance: 0.1,
		Box:      recognition.Region{X: 500, Y: 500, W: 30, H: 30},
	}}, 0.45)
	out := New().Render(blank(64, 48), res)
	if out.Bounds().Dx() != 64 {
		t.Errorf("unexpected bounds %v", out.Bounds())
	}
}

func TestLabel(t *testing.T) {
	if got := Label("john smith", 80.04); got != "JOHN SMITH (80.0%)" {
		t.Errorf("Label() = %q", got)
	}
}
