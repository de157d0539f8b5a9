package mixraster

import (
	"image"
	"image/color"
	"testing"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/google/go-cmp/cmp"
)

func TestCanvasSize(t *testing.T) {
	rd := NewRenderer(10.2, 5, 72)
	if got := rd.Image().Bounds().Size(); got != image.Pt(11, 5) {
		t.Errorf("expected 11x5 canvas, got %v", got)
	}
	if rd.DPI() != 72 {
		t.Errorf("unexpected dpi %v", rd.DPI())
	}
}

func TestFlushEmpty(t *testing.T) {
	rd := NewRenderer(100, 100, 100)
	buf, region := rd.FlushMinimalRegion()
	if !region.Empty() {
		t.Errorf("expected empty region, got %s", region)
	}
	if buf != nil {
		t.Errorf("expected nil buffer, got %d bytes", len(buf))
	}
}

func TestFlushRegion(t *testing.T) {
	rd := NewRenderer(100, 80, 100)
	// a 3x2 block at columns 10..12 and rows 5..6 (top-down)
	for y := 5; y < 7; y++ {
		for x := 10; x < 13; x++ {
			rd.Image().SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	buf, region := rd.FlushMinimalRegion()

	want := mixdraw.Region{Left: 10, Bottom: 80 - 7, Width: 3, Height: 2}
	if diff := cmp.Diff(want, region); diff != "" {
		t.Fatalf("unexpected region (-want +got):\n%s", diff)
	}
	if len(buf) != 3*2*4 {
		t.Fatalf("unexpected buffer length %d", len(buf))
	}
	// scanlines are bottom-up: the first one is the image row 6
	if buf[1] != 6 || buf[4*3+1] != 5 {
		t.Errorf("scanlines not stored bottom-up: %v", buf)
	}
	if buf[0] != 10 || buf[4] != 11 {
		t.Errorf("unexpected pixel order in scanline: %v", buf[:8])
	}
}

func TestFlushStraightAlpha(t *testing.T) {
	rd := NewRenderer(4, 4, 72)
	rd.Image().SetRGBA(1, 1, color.RGBA{R: 50, A: 100}) // premultiplied
	buf, region := rd.FlushMinimalRegion()
	if region.Width != 1 || region.Height != 1 {
		t.Fatalf("unexpected region %s", region)
	}
	want := color.NRGBAModel.Convert(color.RGBA{R: 50, A: 100}).(color.NRGBA)
	if buf[0] != want.R || buf[3] != 100 {
		t.Errorf("expected straight alpha %v, got %v", want, buf)
	}
}

func TestFillRect(t *testing.T) {
	rd := NewRenderer(50, 40, 72)
	var p mixdraw.Path
	p.AddRect(10, 20, 30, 30, 0)
	mixdraw.DrawPath(rd, p, mixdraw.DefaultStyle, 1, mixdraw.Identity)

	if a := rd.Image().RGBAAt(20, 25).A; a != 255 {
		t.Errorf("expected opaque pixel inside the rectangle, got alpha %d", a)
	}
	if a := rd.Image().RGBAAt(5, 5).A; a != 0 {
		t.Errorf("expected transparent pixel outside the rectangle, got alpha %d", a)
	}

	_, region := rd.FlushMinimalRegion()
	// allow one pixel of anti-aliasing on each side
	if region.Left < 9 || region.Left > 10 || region.Width < 20 || region.Width > 22 {
		t.Errorf("unexpected horizontal extent %s", region)
	}
	if region.Bottom < 9 || region.Bottom > 10 || region.Height < 10 || region.Height > 12 {
		t.Errorf("unexpected vertical extent %s", region)
	}
}

func TestStroke(t *testing.T) {
	rd := NewRenderer(50, 50, 72)
	var p mixdraw.Path
	p.Start(5, 25)
	p.Line(45, 25)
	style := mixdraw.DefaultStyle
	style.FillerColor = nil
	style.LinerColor = mixdraw.NewPlainColor(0, 0, 255, 255)
	style.LineWidth = 4
	mixdraw.DrawPath(rd, p, style, 1, mixdraw.Identity)

	if c := rd.Image().RGBAAt(25, 25); c.B == 0 || c.A == 0 {
		t.Errorf("expected blue pixel on the line, got %v", c)
	}
	if a := rd.Image().RGBAAt(25, 10).A; a != 0 {
		t.Errorf("expected transparent pixel away from the line, got alpha %d", a)
	}
}

func TestDrawImage(t *testing.T) {
	rd := NewRenderer(20, 20, 72)
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	rd.DrawImage(rd.NewGC(), 3, 4, src)
	if a := rd.Image().RGBAAt(3, 4).A; a != 255 {
		t.Errorf("expected image pixel at (3, 4), got alpha %d", a)
	}
	if a := rd.Image().RGBAAt(5, 4).A; a != 0 {
		t.Errorf("expected nothing at (5, 4), got alpha %d", a)
	}

	gc := rd.NewGC()
	gc.Alpha = 0.5
	gc.Clip = &mixdraw.Bounds{X: 10, Y: 10, W: 1, H: 1}
	rd.DrawImage(gc, 10, 10, src)
	if a := rd.Image().RGBAAt(10, 10).A; a < 120 || a > 135 {
		t.Errorf("expected half transparent pixel, got alpha %d", a)
	}
	if a := rd.Image().RGBAAt(11, 10).A; a != 0 {
		t.Errorf("expected clipped pixel, got alpha %d", a)
	}
}

func TestGradientFill(t *testing.T) {
	rd := NewRenderer(40, 10, 72)
	var p mixdraw.Path
	p.AddRect(0, 0, 40, 10, 0)
	style := mixdraw.DefaultStyle
	style.FillerColor = mixdraw.Gradient{
		Direction: mixdraw.Linear{0, 0, 1, 0},
		Stops: []mixdraw.GradStop{
			{StopColor: color.NRGBA{R: 255, A: 255}, Offset: 0, Opacity: 1},
			{StopColor: color.NRGBA{B: 255, A: 255}, Offset: 1, Opacity: 1},
		},
		Matrix: mixdraw.Identity,
		Units:  mixdraw.ObjectBoundingBox,
	}
	mixdraw.DrawPath(rd, p, style, 1, mixdraw.Identity)

	left, right := rd.Image().RGBAAt(1, 5), rd.Image().RGBAAt(38, 5)
	if !(left.R > left.B && right.B > right.R) {
		t.Errorf("expected red to blue gradient, got %v and %v", left, right)
	}
}
