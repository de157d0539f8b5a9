// Package alt implements a PDF backend for mixed-mode documents,
// which writes the page content stream with github.com/benoitkugler/pdf.
//
// Compared to the gofpdf backend, fill and stroke opacities are
// kept separate, and gradient fills are written as PDF shadings.
// Device units are PDF points, with the origin at the top left
// corner of the page.
package alt

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"sort"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/benoitkugler/pdf/contentstream"
	"github.com/benoitkugler/pdf/model"
	"golang.org/x/image/math/fixed"
)

// assert interface conformance
var (
	_ mixdraw.Renderer = (*Renderer)(nil)
	_ mixdraw.Filler   = (*filler)(nil)
	_ mixdraw.Stroker  = (*stroker)(nil)
	_ mixdraw.Stroker  = (*patherStroker)(nil)
)

// Renderer draws into the content stream of a one page document.
type Renderer struct {
	ap       contentstream.Appearance
	imageDPI float64
	compress bool

	// opacity states are shared by every path of the page
	fillOpacityStates   map[float64]*model.GraphicState
	strokeOpacityStates map[float64]*model.GraphicState

	err error // first error met while drawing
}

// NewRenderer returns a renderer for a page of the given size, in points.
// Images are sized so that one pixel covers 72/`imageDPI` points.
// A non positive `imageDPI` defaults to 72.
func NewRenderer(widthPt, heightPt, imageDPI float64) *Renderer {
	if imageDPI <= 0 {
		imageDPI = 72
	}
	r := &Renderer{
		ap:                  contentstream.NewAppearance(widthPt, heightPt),
		imageDPI:            imageDPI,
		compress:            true,
		fillOpacityStates:   make(map[float64]*model.GraphicState),
		strokeOpacityStates: make(map[float64]*model.GraphicState),
	}
	// PDF user space has its y axis going up
	r.ap.Transform(model.Matrix{1, 0, 0, -1, 0, heightPt})
	return r
}

// SetCompression toggles the compression of the content stream.
// It is on by default.
func (r *Renderer) SetCompression(compress bool) { r.compress = compress }

// PixelSize returns the size of an image pixel, in points.
func (r *Renderer) PixelSize() float64 { return 72 / r.imageDPI }

func (r *Renderer) NewGC() *mixdraw.GraphicsContext { return mixdraw.NewGraphicsContext() }

func (r *Renderer) setFillOpacity(opacity float64) {
	state := r.fillOpacityStates[opacity]
	if state == nil {
		state = &model.GraphicState{Ca: model.ObjFloat(opacity), BM: []model.Name{"Normal"}}
		r.fillOpacityStates[opacity] = state
	}
	r.ap.SetGraphicState(state)
}

func (r *Renderer) setStrokeOpacity(opacity float64) {
	state := r.strokeOpacityStates[opacity]
	if state == nil {
		state = &model.GraphicState{CA: model.ObjFloat(opacity), BM: []model.Name{"Normal"}}
		r.strokeOpacityStates[opacity] = state
	}
	r.ap.SetGraphicState(state)
}

// implements the common path commands,
// shared by the filler and the stroker.
// The path is recorded, and written right before
// its painting operator.
type pather struct {
	r    *Renderer
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
	p := &pather{r: r}
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

// replay writes the recorded path. Quadratic segments,
// which PDF lacks, are elevated to cubic ones.
func (p *pather) replay() {
	var current, start mixdraw.Point
	for _, op := range p.path {
		switch op := op.(type) {
		case mixdraw.MoveTo:
			current, start = mixdraw.Point(op), mixdraw.Point(op)
			p.r.ap.Ops(contentstream.OpMoveTo{X: op.X, Y: op.Y})
		case mixdraw.LineTo:
			current = mixdraw.Point(op)
			p.r.ap.Ops(contentstream.OpLineTo{X: op.X, Y: op.Y})
		case mixdraw.QuadTo:
			ctrl, end := op[0], op[1]
			p.r.ap.Ops(contentstream.OpCubicTo{
				X1: current.X + (ctrl.X-current.X)*2/3, Y1: current.Y + (ctrl.Y-current.Y)*2/3,
				X2: end.X + (ctrl.X-end.X)*2/3, Y2: end.Y + (ctrl.Y-end.Y)*2/3,
				X3: end.X, Y3: end.Y,
			})
			current = end
		case mixdraw.CubicTo:
			p.r.ap.Ops(contentstream.OpCubicTo{
				X1: op[0].X, Y1: op[0].Y, X2: op[1].X, Y2: op[1].Y, X3: op[2].X, Y3: op[2].Y,
			})
			current = op[2]
		case mixdraw.Close:
			current = start
			p.r.ap.Ops(contentstream.OpClosePath{})
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

func clampAlpha(alpha float64) float64 {
	return min(max(alpha, 0), 1)
}

// opaque drops the alpha channel, which is handled
// by the graphic states.
func opaque(c mixdraw.PlainColor) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func (f *filler) Draw(pattern mixdraw.Pattern, opacity float64) {
	if g, ok := pattern.(mixdraw.Gradient); ok && len(g.Stops) != 0 {
		f.r.fillGradient(f.path, f.useNonZeroWinding, g, clampAlpha(opacity))
		return
	}
	c, alpha := resolveColor(pattern, opacity)
	if f.willStroke {
		// the stroker will paint both
		f.pendingFill = &pendingFill{color: c, opacity: alpha, useNonZeroWinding: f.useNonZeroWinding}
		return
	}
	f.r.ap.SetColorFill(opaque(c))
	f.r.setFillOpacity(alpha)
	f.replay()
	if f.useNonZeroWinding {
		f.r.ap.Ops(contentstream.OpFill{})
	} else {
		f.r.ap.Ops(contentstream.OpEOFill{})
	}
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
	var capStyle uint8 // butt
	switch f.options.Join.TrailLineCap {
	case mixdraw.RoundCap, mixdraw.CubicCap, mixdraw.QuadraticCap:
		capStyle = 1
	case mixdraw.SquareCap:
		capStyle = 2
	}
	var joinStyle uint8 // miter
	switch f.options.Join.LineJoin {
	case mixdraw.Round, mixdraw.Arc, mixdraw.ArcClip:
		joinStyle = 1
	case mixdraw.Bevel:
		joinStyle = 2
	}
	ap := &f.r.ap
	ap.Ops(
		contentstream.OpSetLineWidth{W: float64(f.options.LineWidth) / 64},
		contentstream.OpSetLineCap{Style: capStyle},
		contentstream.OpSetLineJoin{Style: joinStyle},
		contentstream.OpSetDash{Dash: model.DashPattern{
			Array: append([]float64{}, f.options.Dash.Dash...),
			Phase: f.options.Dash.DashOffset,
		}},
	)
	// PDF rejects miter limits below 1
	if limit := float64(f.options.Join.MiterLimit) / 64; limit >= 1 {
		ap.Ops(contentstream.OpSetMiterLimit{Limit: limit})
	}
}

// Draw strokes the path. Gradients are approximated
// by their first stop.
func (f *patherStroker) Draw(pattern mixdraw.Pattern, opacity float64) {
	c, alpha := resolveColor(pattern, opacity)
	fill := f.pendingFill
	f.pendingFill = nil

	ap := &f.r.ap
	f.writeStrokeOptions()
	ap.SetColorStroke(opaque(c))
	f.r.setStrokeOpacity(alpha)
	if fill == nil {
		f.replay()
		ap.Ops(contentstream.OpStroke{})
		return
	}
	// one operator for both, since the opacities are independent
	ap.SetColorFill(opaque(fill.color))
	f.r.setFillOpacity(fill.opacity)
	f.replay()
	if fill.useNonZeroWinding {
		ap.Ops(contentstream.OpFillStroke{})
	} else {
		ap.Ops(contentstream.OpEOFillStroke{})
	}
}

// the stroker doesnt record the path again

func (p stroker) Clear() {}

func (p stroker) Start(a fixed.Point26_6) {}

func (p stroker) Line(b fixed.Point26_6) {}

func (p stroker) QuadBezier(b fixed.Point26_6, c fixed.Point26_6) {}

func (p stroker) CubeBezier(b fixed.Point26_6, c fixed.Point26_6, d fixed.Point26_6) {}

func (p stroker) Stop(closeLoop bool) {}

// fillGradient clips to `path` and paints the gradient shading.
// Stop opacities are ignored, and spread methods other than pad
// are rendered as pad.
func (r *Renderer) fillGradient(path mixdraw.Path, useNonZeroWinding bool, g mixdraw.Gradient, opacity float64) {
	var mat model.Matrix
	if g.Units == mixdraw.ObjectBoundingBox {
		b := path.Bounds(mixdraw.Identity)
		if b.W == 0 || b.H == 0 {
			return
		}
		mat = model.Matrix{b.W, 0, 0, b.H, b.X, b.Y}
	}

	r.ap.SaveState()
	p := pather{r: r, path: path}
	p.replay()
	if useNonZeroWinding {
		r.ap.Ops(contentstream.OpClip{})
	} else {
		r.ap.Ops(contentstream.OpEOClip{})
	}
	r.ap.Ops(contentstream.OpEndPath{})
	r.setFillOpacity(opacity)
	if g.Units == mixdraw.ObjectBoundingBox {
		r.ap.Transform(mat)
	}
	m := g.Matrix
	r.ap.Transform(model.Matrix{m.A, m.B, m.C, m.D, m.E, m.F})
	r.ap.Shading(buildShading(g))
	r.ap.RestoreState()
}

// buildShading returns an RGB shading, interpolating
// linearly between each consecutive stops.
func buildShading(g mixdraw.Gradient) *model.ShadingDict {
	stops := append([]mixdraw.GradStop(nil), g.Stops...)
	for i, s := range stops {
		stops[i].Offset = min(max(s.Offset, 0), 1)
	}
	sort.SliceStable(stops, func(i, j int) bool { return stops[i].Offset < stops[j].Offset })
	// the first and last colors extend to the domain ends
	if first := stops[0]; first.Offset > 0 {
		first.Offset = 0
		stops = append([]mixdraw.GradStop{first}, stops...)
	}
	if last := stops[len(stops)-1]; last.Offset < 1 || len(stops) == 1 {
		last.Offset = 1
		stops = append(stops, last)
	}

	colors := make([][]float64, len(stops))
	for i, s := range stops {
		c := color.NRGBAModel.Convert(s.StopColor).(color.NRGBA)
		colors[i] = []float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
	}
	bounds := make([]float64, len(stops)-2)
	for i := range bounds {
		bounds[i] = stops[i+1].Offset
	}
	encode := make([][2]float64, len(stops)-1)
	functions := make([]model.FunctionDict, len(stops)-1)
	for i := range functions {
		encode[i] = [2]float64{0, 1}
		functions[i] = model.FunctionDict{
			Domain:       []model.Range{{0, 1}},
			FunctionType: model.FunctionExpInterpolation{C0: colors[i], C1: colors[i+1], N: 1},
		}
	}
	base := model.BaseGradient{
		Function: []model.FunctionDict{{
			Domain:       []model.Range{{0, 1}},
			FunctionType: model.FunctionStitching{Functions: functions, Bounds: bounds, Encode: encode},
		}},
		Extend: [2]bool{true, true},
	}
	out := &model.ShadingDict{ColorSpace: model.ColorSpaceRGB}
	switch dir := g.Direction.(type) {
	case mixdraw.Linear:
		out.ShadingType = model.ShadingAxial{BaseGradient: base, Coords: dir}
	case mixdraw.Radial:
		cx, cy, fx, fy, rad, fr := dir[0], dir[1], dir[2], dir[3], dir[4], dir[5]
		// the focal circle is the start circle
		out.ShadingType = model.ShadingRadial{BaseGradient: base, Coords: [6]float64{fx, fy, fr, cx, cy, rad}}
	}
	return out
}

// DrawImage embeds `img`, with its top left corner at (x, y) points.
// Each pixel covers 72/imageDPI points.
// Errors are reported by Output.
// A nil `gc` is the default context.
func (r *Renderer) DrawImage(gc *mixdraw.GraphicsContext, x, y float64, img image.Image) {
	if r.err != nil {
		return
	}
	if gc == nil {
		gc = r.NewGC()
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		r.err = fmt.Errorf("alt: encoding image: %w", err)
		return
	}
	xobj, _, err := contentstream.ParseImage(&buf, "image/png")
	if err != nil {
		r.err = fmt.Errorf("alt: embedding image: %w", err)
		return
	}

	size := img.Bounds().Size()
	w := float64(size.X) * 72 / r.imageDPI
	h := float64(size.Y) * 72 / r.imageDPI

	r.ap.SaveState()
	if gc.Clip != nil {
		r.ap.Ops(
			contentstream.OpRectangle{X: gc.Clip.X, Y: gc.Clip.Y, W: gc.Clip.W, H: gc.Clip.H},
			contentstream.OpClip{},
			contentstream.OpEndPath{},
		)
	}
	r.setFillOpacity(clampAlpha(gc.Alpha))
	// image space has its first row at the top of the unit square
	r.ap.AddXObjectDims(xobj, x, y+h, w, -h)
	r.ap.RestoreState()
}

// Output writes the document to `w`.
// Any error met while drawing is returned.
func (r *Renderer) Output(w io.Writer) error {
	if r.err != nil {
		return r.err
	}
	var page model.PageObject
	r.ap.ApplyToPageObject(&page, r.compress)
	var doc model.Document
	doc.Catalog.Pages.Kids = []model.PageNode{&page}
	if err := doc.Write(w, nil); err != nil {
		return fmt.Errorf("alt: writing document: %w", err)
	}
	return nil
}

// WriteFile writes the document to the file at `path`.
func (r *Renderer) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("alt: writing %s: %w", path, err)
	}
	err = r.Output(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("alt: writing %s: %w", path, cerr)
	}
	return err
}
