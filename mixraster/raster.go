// Implements an in-memory RGBA raster backend,
// by wrapping rasterx.
package mixraster

import (
	"image"
	"image/color"
	"math"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/srwiley/rasterx"
	xdraw "golang.org/x/image/draw"
)

var _ mixdraw.Renderer = (*Renderer)(nil) // assert interface conformance

// Renderer draws into a transparent RGBA canvas.
type Renderer struct {
	img *image.RGBA
	dpi float64

	dasher *rasterx.Dasher // to avoid shared state
	filler *rasterx.Filler // we use separated instance
}

// NewRenderer returns a renderer whose canvas is width x height pixels,
// rounded up. The `dpi` is only informative.
// It panics on negative sizes.
func NewRenderer(width, height, dpi float64) *Renderer {
	if width < 0 || height < 0 {
		panic("mixraster: negative canvas size")
	}
	w, h := int(math.Ceil(width)), int(math.Ceil(height))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	return &Renderer{
		img:    img,
		dpi:    dpi,
		dasher: rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, img, img.Bounds())),
		filler: rasterx.NewFiller(w, h, rasterx.NewScannerGV(w, h, img, img.Bounds())),
	}
}

// Image returns the canvas. It is shared with the renderer.
func (rd *Renderer) Image() *image.RGBA { return rd.img }

// DPI returns the resolution given at creation.
func (rd *Renderer) DPI() float64 { return rd.dpi }

// Clear erases the canvas.
func (rd *Renderer) Clear() {
	for i := range rd.img.Pix {
		rd.img.Pix[i] = 0
	}
}

func (rd *Renderer) SetupDrawers(willFill, willStroke bool) (f mixdraw.Filler, s mixdraw.Stroker) {
	if willFill {
		f = filler{rd.filler}
	}
	if willStroke {
		s = stroker{rd.dasher}
	}
	return f, s
}

func (rd *Renderer) NewGC() *mixdraw.GraphicsContext { return mixdraw.NewGraphicsContext() }

// DrawImage composites `img` over the canvas, one image pixel per canvas pixel.
func (rd *Renderer) DrawImage(gc *mixdraw.GraphicsContext, x, y float64, img image.Image) {
	sb := img.Bounds()
	origin := image.Pt(int(math.Round(x)), int(math.Round(y)))
	dr := image.Rectangle{Min: origin, Max: origin.Add(sb.Size())}
	if gc != nil && gc.Clip != nil {
		c := gc.Clip
		clip := image.Rect(int(math.Floor(c.X)), int(math.Floor(c.Y)), int(math.Ceil(c.X+c.W)), int(math.Ceil(c.Y+c.H)))
		dr = dr.Intersect(clip)
	}
	sp := sb.Min.Add(dr.Min.Sub(origin))
	if gc == nil || gc.Alpha >= 1 {
		xdraw.Draw(rd.img, dr, img, sp, xdraw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(gc.Alpha * 255))})
	xdraw.DrawMask(rd.img, dr, img, sp, mask, image.Point{}, xdraw.Over)
}

type filler struct {
	*rasterx.Filler
}

type stroker struct {
	*rasterx.Dasher
}

func (f filler) Draw(color mixdraw.Pattern, opacity float64) {
	setColorFromPattern(color, opacity, f.Filler.Scanner)
	f.Filler.Draw()
}

func (s stroker) Draw(color mixdraw.Pattern, opacity float64) {
	setColorFromPattern(color, opacity, s.Dasher.Scanner)
	s.Dasher.Draw()
}

func toRasterxGradient(grad mixdraw.Gradient) rasterx.Gradient {
	var (
		points   [5]float64
		isRadial bool
	)
	switch dir := grad.Direction.(type) {
	case mixdraw.Linear:
		points[0], points[1], points[2], points[3] = dir[0], dir[1], dir[2], dir[3]
		isRadial = false
	case mixdraw.Radial:
		points[0], points[1], points[2], points[3], points[4], _ = dir[0], dir[1], dir[2], dir[3], dir[4], dir[5] // in rasterx fr is ignored
		isRadial = true
	}
	stops := make([]rasterx.GradStop, len(grad.Stops))
	for i := range grad.Stops {
		stops[i] = rasterx.GradStop(grad.Stops[i])
	}
	return rasterx.Gradient{
		Points:   points,
		Stops:    stops,
		Bounds:   grad.Bounds,
		Matrix:   grad.Matrix,
		Spread:   rasterx.SpreadMethod(grad.Spread),
		Units:    rasterx.GradientUnits(grad.Units),
		IsRadial: isRadial,
	}
}

// resolve gradient color
func setColorFromPattern(pattern mixdraw.Pattern, opacity float64, scanner rasterx.Scanner) {
	switch fillerColor := pattern.(type) {
	case mixdraw.PlainColor:
		c := fillerColor.NRGBA
		c.A = uint8(math.Round(float64(c.A) * min(max(opacity, 0), 1)))
		scanner.SetColor(c)
	case mixdraw.Gradient:
		if fillerColor.Units == mixdraw.ObjectBoundingBox {
			fRect := scanner.GetPathExtent()
			mnx, mny := float64(fRect.Min.X)/64, float64(fRect.Min.Y)/64
			mxx, mxy := float64(fRect.Max.X)/64, float64(fRect.Max.Y)/64
			fillerColor.Bounds.X, fillerColor.Bounds.Y = mnx, mny
			fillerColor.Bounds.W, fillerColor.Bounds.H = mxx-mnx, mxy-mny
		}
		rasterxGradient := toRasterxGradient(fillerColor)
		scanner.SetColor(rasterxGradient.GetColorFunction(opacity))
	}
}

var (
	joinToJoin = [...]rasterx.JoinMode{
		mixdraw.Round:     rasterx.Round,
		mixdraw.Bevel:     rasterx.Bevel,
		mixdraw.Miter:     rasterx.Miter,
		mixdraw.MiterClip: rasterx.MiterClip,
		mixdraw.Arc:       rasterx.Arc,
		mixdraw.ArcClip:   rasterx.ArcClip,
	}

	capToFunc = [...]rasterx.CapFunc{
		mixdraw.NilCap:       rasterx.ButtCap,
		mixdraw.ButtCap:      rasterx.ButtCap,
		mixdraw.SquareCap:    rasterx.SquareCap,
		mixdraw.RoundCap:     rasterx.RoundCap,
		mixdraw.CubicCap:     rasterx.CubicCap,
		mixdraw.QuadraticCap: rasterx.QuadraticCap,
	}

	gapToFunc = [...]rasterx.GapFunc{
		mixdraw.NilGap:       rasterx.FlatGap,
		mixdraw.FlatGap:      rasterx.FlatGap,
		mixdraw.RoundGap:     rasterx.RoundGap,
		mixdraw.CubicGap:     rasterx.CubicGap,
		mixdraw.QuadraticGap: rasterx.QuadraticGap,
	}
)

func (s stroker) SetStrokeOptions(options mixdraw.StrokeOptions) {
	s.Dasher.SetStroke(
		options.LineWidth, options.Join.MiterLimit, capToFunc[options.Join.LeadLineCap],
		capToFunc[options.Join.TrailLineCap], gapToFunc[options.Join.LineGap],
		joinToJoin[options.Join.LineJoin], options.Dash.Dash, options.Dash.DashOffset,
	)
}
