// Implements a PDF backend for mixed-mode documents,
// by wrapping github.com/jung-kurt/gofpdf.
//
// Device units are PDF points, with the origin at the top left
// corner of the page, which is the gofpdf convention.
package mixpdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ mixdraw.Renderer = (*Renderer)(nil)
	_ mixdraw.Filler   = (*filler)(nil)
	_ mixdraw.Stroker  = (*stroker)(nil)
	_ mixdraw.Stroker  = (*patherStroker)(nil)
)

// Renderer draws into one page of a gofpdf document.
type Renderer struct {
	pdf      *gofpdf.Fpdf
	imageDPI float64
	images   int // number of embedded images, used to name them
}

// NewDocument returns a one page document of the given size, in points.
func NewDocument(widthPt, heightPt float64) *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: widthPt, Ht: heightPt},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return pdf
}

// NewRenderer return a renderer which will
// write to the given `pdf`.
// Images are sized so that one pixel covers 72/`imageDPI` points.
// A non positive `imageDPI` defaults to 72.
func NewRenderer(pdf *gofpdf.Fpdf, imageDPI float64) *Renderer {
	if imageDPI <= 0 {
		imageDPI = 72
	}
	return &Renderer{pdf: pdf, imageDPI: imageDPI}
}

// PDF returns the underlying document.
func (r *Renderer) PDF() *gofpdf.Fpdf { return r.pdf }

// implements the common path commands,
// shared by the filler and the stroker.
// Nothing is written while the path is built: graphics state
// operators must precede the path construction operators,
// so the path is replayed when painted.
type pather struct {
	pdf  *gofpdf.Fpdf
	path mixdraw.Path

	// fill waiting for the stroke of the same path
	pendingFill *pendingFill
}

type pendingFill struct {
	color             mixdraw.PlainColor
	opacity           float64
	useNonZeroWinding bool
}

// implements the filling operation
type filler struct {
	*pather
	useNonZeroWinding bool
	willStroke        bool
}

// implements the stroking operation, while
// also recording the path
type patherStroker struct {
	*pather
	options mixdraw.StrokeOptions
}

// only stroke the current path, established by
// the filler
type stroker struct {
	patherStroker
}

func (r *Renderer) SetupDrawers(willFill, willStroke bool) (f mixdraw.Filler, s mixdraw.Stroker) {
	p := &pather{pdf: r.pdf}
	if willFill {
		f = &filler{pather: p, useNonZeroWinding: true, willStroke: willStroke}
		if willStroke { // dont record the same path twice
			s = &stroker{patherStroker{pather: p}}
		} // else s = nil
	} else if willStroke { // record the path
		s = &patherStroker{pather: p}
	}
	return f, s
}

func (r *Renderer) NewGC() *mixdraw.GraphicsContext { return mixdraw.NewGraphicsContext() }

func (p *pather) Clear() {
	p.path.Clear()
	p.pendingFill = nil
}

func (p *pather) Start(a fixed.Point26_6) { p.path.Start(mixdraw.FromFixed(a)) }

func (p *pather) Line(b fixed.Point26_6) { p.path.Line(mixdraw.FromFixed(b)) }

func (p *pather) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {
	p.path.QuadBezier(fromFixed(b), fromFixed(c))
}

func (p *pather) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {
	p.path.CubeBezier(fromFixed(b), fromFixed(c), fromFixed(d))
}

func (p *pather) Stop(closeLoop bool) { p.path.Stop(closeLoop) }

func fromFixed(a fixed.Point26_6) mixdraw.Point {
	x, y := mixdraw.FromFixed(a)
	return mixdraw.Point{X: x, Y: y}
}

// replay writes the recorded path, right before
// a painting operator.
func (p *pather) replay() {
	for _, op := range p.path {
		switch op := op.(type) {
		case mixdraw.MoveTo:
			p.pdf.MoveTo(op.X, op.Y)
		case mixdraw.LineTo:
			p.pdf.LineTo(op.X, op.Y)
		case mixdraw.QuadTo:
			p.pdf.CurveTo(op[0].X, op[0].Y, op[1].X, op[1].Y)
		case mixdraw.CubicTo:
			p.pdf.CurveBezierCubicTo(op[0].X, op[0].Y, op[1].X, op[1].Y, op[2].X, op[2].Y)
		case mixdraw.Close:
			p.pdf.ClosePath()
		}
	}
}

// resolveColor returns the plain color used for `pattern`, and
// the opacity with the color alpha applied.
// Gradients are approximated by their first stop.
func resolveColor(pattern mixdraw.Pattern, opacity float64) (mixdraw.PlainColor, float64) {
	var c mixdraw.PlainColor
	switch pattern := pattern.(type) {
	case mixdraw.PlainColor:
		c = pattern
	case mixdraw.Gradient:
		c = pattern.FirstColor()
	}
	opacity *= float64(c.A) / 255.
	return c, clampAlpha(opacity)
}

// gofpdf rejects alpha values outside [0, 1]
func clampAlpha(alpha float64) float64 {
	return min(max(alpha, 0), 1)
}

func fillOperator(useNonZeroWinding bool) string {
	if useNonZeroWinding {
		return "f"
	}
	return "f*"
}

func (f *filler) Draw(color mixdraw.Pattern, opacity float64) {
	c, alpha := resolveColor(color, opacity)
	if f.willStroke {
		// the stroker will paint both
		f.pendingFill = &pendingFill{color: c, opacity: alpha, useNonZeroWinding: f.useNonZeroWinding}
		return
	}
	f.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	f.pdf.SetAlpha(alpha, "Normal")
	f.replay()
	f.pdf.DrawPath(fillOperator(f.useNonZeroWinding))
}

func (f *filler) SetWinding(useNonZeroWinding bool) {
	f.useNonZeroWinding = useNonZeroWinding
}

// SetStrokeOptions stores the options, which are written
// when the path is painted.
func (f *patherStroker) SetStrokeOptions(options mixdraw.StrokeOptions) {
	f.options = options
}

func (f *patherStroker) writeStrokeOptions() {
	capStyle := "butt"
	switch f.options.Join.TrailLineCap {
	case mixdraw.RoundCap, mixdraw.CubicCap, mixdraw.QuadraticCap:
		capStyle = "round"
	case mixdraw.SquareCap:
		capStyle = "square"
	}
	joinStyle := "miter"
	switch f.options.Join.LineJoin {
	case mixdraw.Bevel:
		joinStyle = "bevel"
	case mixdraw.Round, mixdraw.Arc, mixdraw.ArcClip:
		joinStyle = "round"
	}
	// gofpdf has no miter limit setter: the PDF default (10) applies
	f.pdf.SetLineWidth(float64(f.options.LineWidth) / 64)
	f.pdf.SetLineCapStyle(capStyle)
	f.pdf.SetLineJoinStyle(joinStyle)
	f.pdf.SetDashPattern(append([]float64{}, f.options.Dash.Dash...), f.options.Dash.DashOffset)
}

func (f *patherStroker) Draw(color mixdraw.Pattern, opacity float64) {
	c, alpha := resolveColor(color, opacity)

	fill := f.pendingFill
	f.pendingFill = nil
	if fill != nil && fill.opacity != alpha {
		// gofpdf shares the alpha between fill and stroke:
		// paint separately, writing the path twice
		f.pdf.SetFillColor(int(fill.color.R), int(fill.color.G), int(fill.color.B))
		f.pdf.SetAlpha(fill.opacity, "Normal")
		f.replay()
		f.pdf.DrawPath(fillOperator(fill.useNonZeroWinding))
		fill = nil
	}

	f.writeStrokeOptions()
	f.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	f.pdf.SetAlpha(alpha, "Normal")
	if fill == nil {
		f.replay()
		f.pdf.DrawPath("D")
		return
	}
	// one operator for both
	f.pdf.SetFillColor(int(fill.color.R), int(fill.color.G), int(fill.color.B))
	f.replay()
	if fill.useNonZeroWinding {
		f.pdf.DrawPath("FD")
	} else {
		f.pdf.DrawPath("FD*")
	}
}

// the stroker doesnt record the path again

func (p stroker) Clear() {}

func (p stroker) Start(a fixed.Point26_6) {}

func (p stroker) Line(b fixed.Point26_6) {}

func (p stroker) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {}

func (p stroker) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {}

func (p stroker) Stop(closeLoop bool) {}

// PixelSize returns the size of an image pixel, in points.
func (r *Renderer) PixelSize() float64 { return 72 / r.imageDPI }

// DrawImage embeds `img` as a PNG image, with its top left corner
// at (x, y) points. Each pixel covers 72/imageDPI points.
// Errors are accumulated in the gofpdf document, and reported by Output.
// A nil `gc` is the default context.
func (r *Renderer) DrawImage(gc *mixdraw.GraphicsContext, x, y float64, img image.Image) {
	if r.pdf.Err() {
		return
	}
	if gc == nil {
		gc = r.NewGC()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		r.pdf.SetError(fmt.Errorf("mixpdf: encoding image: %w", err))
		return
	}
	r.images++
	name := fmt.Sprintf("raster%d", r.images)
	options := gofpdf.ImageOptions{ImageType: "PNG", AllowNegativePosition: true}
	r.pdf.RegisterImageOptionsReader(name, options, &buf)

	size := img.Bounds().Size()
	w := float64(size.X) * 72 / r.imageDPI
	h := float64(size.Y) * 72 / r.imageDPI

	if gc.Clip != nil {
		r.pdf.ClipRect(gc.Clip.X, gc.Clip.Y, gc.Clip.W, gc.Clip.H, false)
	}
	r.pdf.SetAlpha(clampAlpha(gc.Alpha), "Normal")
	r.pdf.ImageOptions(name, x, y, w, h, false, options, 0, "")
	if gc.Clip != nil {
		r.pdf.ClipEnd()
	}
}

// Output writes the document to `w`, and closes it.
// Any error met while drawing is returned.
func (r *Renderer) Output(w io.Writer) error {
	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("mixpdf: writing document: %w", err)
	}
	return nil
}

// WriteFile writes the document to the file at `path`, and closes it.
func (r *Renderer) WriteFile(path string) error {
	if err := r.pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("mixpdf: writing %s: %w", path, err)
	}
	return nil
}
