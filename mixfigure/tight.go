package mixfigure

import (
	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/benoitkugler/mixmode/mixmode"
)

// DefaultPad is the margin added around the tight bounding box, in inches.
const DefaultPad = 0.1

// TightBBox returns the union of the artist extents, grown by `pad` inches.
// An empty figure returns its full canvas.
func (f *Figure) TightBBox(pad float64) mixdraw.Bounds {
	var b mixdraw.Bounds
	for _, a := range f.artists {
		b = b.Union(a.Extents())
	}
	if b.Empty() {
		return mixdraw.Bounds{X: f.origin.X, Y: f.origin.Y, W: f.width, H: f.height}
	}
	return b.Pad(pad)
}

// AdjustBBox crops the visible area of the figure to `bbox` (in inches).
// When `fixedDPI` is positive, the resolution is also set to it.
// The returned function restores the previous state.
func (f *Figure) AdjustBBox(bbox mixdraw.Bounds, fixedDPI float64) (restore func()) {
	origin, width, height, dpi := f.origin, f.width, f.height, f.dpi
	f.origin = mixdraw.Point{X: bbox.X, Y: bbox.Y}
	f.width, f.height = bbox.W, bbox.H
	if fixedDPI > 0 {
		f.dpi = fixedDPI
	}
	return func() {
		f.origin, f.width, f.height = origin, width, height
		if fixedDPI > 0 {
			f.dpi = dpi
		}
	}
}

// BBoxRestore is the pending tight bounding box adjustment of a figure:
// the box it has been cropped to, and the function undoing it.
type BBoxRestore struct {
	BBox    mixdraw.Bounds
	Restore func()
}

var _ mixmode.BBoxHooks = TightBBoxHooks{}

// TightBBoxHooks keeps a figure cropped to its tight bounding box
// across raster transitions, by undoing and applying again the
// adjustment after each resolution change.
// The document must be a *Figure and the token a BBoxRestore.
type TightBBoxHooks struct{}

func (TightBBoxHooks) process(doc mixmode.Document, token any, fixedDPI float64) any {
	fig := doc.(*Figure)
	br := token.(BBoxRestore)
	br.Restore()
	br.Restore = fig.AdjustBBox(br.BBox, fixedDPI)
	return br
}

func (h TightBBoxHooks) PreRasterize(doc mixmode.Document, token any) any {
	return h.process(doc, token, 0)
}

func (h TightBBoxHooks) PostRasterize(doc mixmode.Document, token any, restoredDPI float64) any {
	return h.process(doc, token, restoredDPI)
}
