// Defines the drawing vocabulary shared by the renderers
// of a mixed-mode document: the painter interfaces
// implemented by the vector and raster backends, paths, colors
// and stroke options.
// Coordinates received by a renderer are device units, with
// the origin at the top left corner and the y axis going down.
package mixdraw

import (
	"image"

	"golang.org/x/image/math/fixed"
)

// Drawer knows how to do the actual draw operations
// but doesn't need any knowledge of the artists.
// In particular, transformations are already applied to the points
// before sending them to the Drawer.
type Drawer interface {
	// Clear must reset the internal state (used before starting a new path painting)
	Clear()

	// Start starts a new path at the given point.
	Start(a fixed.Point26_6)

	// Line Adds a line for the current point to `b`
	Line(b fixed.Point26_6)

	// QuadBezier adds a quadratic bezier curve to the path
	QuadBezier(b, c fixed.Point26_6)

	// CubeBezier adds a cubic bezier curve to the path
	CubeBezier(b, c, d fixed.Point26_6)

	// Closes the path to the start point if `closeLoop` is true
	Stop(closeLoop bool)

	// Draw fills or strokes the accumulated path using the given color,
	// depending on the kind of drawer.
	Draw(color Pattern, opacity float64)
}

type Filler interface {
	Drawer

	// Decide to use or not the NonZeroWinding rule for the current path
	SetWinding(useNonZeroWinding bool)
}

type Stroker interface {
	Drawer

	// Parametrize the stroking style for the current path
	SetStrokeOptions(options StrokeOptions)
}

// Renderer is the set of operations a drawing surface supports.
// Both the vector and the raster backends implement it, so that
// artists may be drawn without knowing which one is active.
type Renderer interface {
	// SetupDrawers returns the backend painters, and
	// will be called at the begining of every path.
	// If the `willXXX` boolean is false, the returned drawer should be nil
	// to avoid useless operations.
	// When both booleans are true, one can assume that the exact same draw operations
	// will be performed on the Filler first and then on the Stroker.
	// This promise may enable the implementation to avoid duplicating filled and stroked paths
	SetupDrawers(willFill, willStroke bool) (Filler, Stroker)

	// NewGC returns a fresh graphics context, with default values.
	NewGC() *GraphicsContext

	// DrawImage draws `img` with its top left corner at (x, y),
	// in device units. The image is not resampled by the caller:
	// backends decide how many device units a pixel covers.
	DrawImage(gc *GraphicsContext, x, y float64, img image.Image)
}

// PixelSize returns the number of device units covered
// by one pixel of an image drawn with `r`.
// Renderers may implement `PixelSize() float64`; the default is 1.
func PixelSize(r Renderer) float64 {
	if ps, ok := r.(interface{ PixelSize() float64 }); ok {
		return ps.PixelSize()
	}
	return 1
}

// GraphicsContext stores the state applying to
// image drawing operations.
type GraphicsContext struct {
	Alpha float64 // in [0, 1]
	Clip  *Bounds // optional clip rectangle, in device units
}

// NewGraphicsContext returns an opaque, unclipped context.
func NewGraphicsContext() *GraphicsContext {
	return &GraphicsContext{Alpha: 1}
}

// Bounds defines a bounding box, such as a viewport
// or a path extent.
type Bounds struct{ X, Y, W, H float64 }

// Union returns the smallest box containing both `b` and `o`.
// Empty boxes are ignored.
func (b Bounds) Union(o Bounds) Bounds {
	if b.Empty() {
		return o
	}
	if o.Empty() {
		return b
	}
	minX, minY := min(b.X, o.X), min(b.Y, o.Y)
	maxX, maxY := max(b.X+b.W, o.X+o.W), max(b.Y+b.H, o.Y+o.H)
	return Bounds{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Empty returns true if the box has no area.
func (b Bounds) Empty() bool { return b.W <= 0 || b.H <= 0 }

// Pad grows the box by `d` on each side.
func (b Bounds) Pad(d float64) Bounds {
	return Bounds{X: b.X - d, Y: b.Y - d, W: b.W + 2*d, H: b.H + 2*d}
}
