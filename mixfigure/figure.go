// Package mixfigure provides a document hosting artists,
// drawn on any mixdraw.Renderer.
//
// Figure coordinates are expressed in inches, with the origin
// at the top left corner and the y axis going down. They are converted
// to device units using the current resolution of the figure, so that
// changing the resolution (as a mixmode.Compositor does when rasterizing)
// retargets the drawing to the raster canvas.
package mixfigure

import (
	"fmt"

	"github.com/benoitkugler/mixmode/mixdraw"
)

// Artist is a drawable element of a figure.
type Artist interface {
	// Draw paints the artist using the current
	// transform of `fig`.
	Draw(r mixdraw.Renderer, fig *Figure)

	// Extents returns the area covered by the artist, in inches.
	Extents() mixdraw.Bounds

	// Rasterized returns true if the artist should be
	// drawn with a raster backend when available.
	Rasterized() bool
}

// Figure is a list of artists drawn in order,
// on a canvas of fixed logical size.
type Figure struct {
	Title string

	width, height float64       // in inches
	dpi           float64       // current resolution
	origin        mixdraw.Point // top left corner of the visible area, in inches

	artists []Artist
}

// New returns an empty figure of `width` x `height` inches,
// with resolution `dpi`.
func New(width, height, dpi float64) *Figure {
	return &Figure{width: width, height: height, dpi: dpi}
}

// DPI returns the current resolution, in device units per inch.
func (f *Figure) DPI() float64 { return f.dpi }

// SetDPI changes the resolution used by the next drawing operations.
func (f *Figure) SetDPI(dpi float64) { f.dpi = dpi }

// Size returns the size of the visible area, in inches.
func (f *Figure) Size() (width, height float64) { return f.width, f.height }

// Origin returns the top left corner of the visible area, in inches.
func (f *Figure) Origin() mixdraw.Point { return f.origin }

// Transform maps figure coordinates to device units.
func (f *Figure) Transform() mixdraw.Matrix2D {
	return mixdraw.Identity.Scale(f.dpi, f.dpi).Translate(-f.origin.X, -f.origin.Y)
}

// Add appends artists, drawn after the existing ones.
func (f *Figure) Add(artists ...Artist) { f.artists = append(f.artists, artists...) }

// Artists returns the artists of the figure, in drawing order.
func (f *Figure) Artists() []Artist { return f.artists }

// Rasterizer is implemented by renderers supporting raster sessions,
// such as mixmode.Compositor.
type Rasterizer interface {
	mixdraw.Renderer
	StartRasterizing()
	StopRasterizing()
}

// Draw paints the artists in order. When `r` implements Rasterizer,
// each run of consecutive rasterized artists is drawn inside one
// raster session; otherwise every artist is drawn directly.
func (f *Figure) Draw(r mixdraw.Renderer) error {
	if f.width <= 0 || f.height <= 0 {
		return fmt.Errorf("mixfigure: invalid figure size %gx%g", f.width, f.height)
	}
	if f.dpi <= 0 {
		return fmt.Errorf("mixfigure: invalid resolution %g", f.dpi)
	}
	rs, canRasterize := r.(Rasterizer)
	if !canRasterize {
		for _, a := range f.artists {
			a.Draw(r, f)
		}
		return nil
	}

	inSession := false
	defer func() {
		if inSession {
			rs.StopRasterizing()
		}
	}()
	for _, a := range f.artists {
		if a.Rasterized() != inSession {
			if inSession {
				rs.StopRasterizing()
			} else {
				rs.StartRasterizing()
			}
			inSession = !inSession
		}
		a.Draw(r, f)
	}
	return nil
}
