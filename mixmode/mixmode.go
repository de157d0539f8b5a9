// Package mixmode implements a renderer switching between
// vector and raster drawing within one output document.
//
// Most artists are drawn with vector commands, but some very
// complex ones (such as dense meshes) are better rasterised and
// then output as images. A Compositor wraps the vector renderer of
// the document and, between StartRasterizing and StopRasterizing,
// redirects every drawing call to a temporary raster canvas sized
// to the raster resolution. When the outermost raster session ends,
// the smallest region holding drawn pixels is embedded into the
// vector output with a single DrawImage call.
//
// Basic usage:
//
//	c := mixmode.New(fig, 6, 4, 300, pdfRenderer)
//	mixdraw.DrawPath(c, outline, style, 1, m) // vector
//	err := c.Rasterize(func() error {
//	    mesh.Draw(c, fig) // rasterized at 300 dpi
//	    return nil
//	})
//
// The compositor must always be used in place of the renderers it
// wraps: the active backend is resolved again on every call.
//
// The embedded image is not resampled when the raster resolution
// differs from the document resolution: only its position is
// converted. Backends may size images according to their own
// image resolution setting.
//
// A Compositor is not safe for concurrent use.
package mixmode

import (
	"fmt"
	"image"

	"github.com/benoitkugler/mixmode/mixdraw"
)

// Document is the host of the drawing. Its resolution
// is temporarily set to the raster resolution while rasterizing.
type Document interface {
	DPI() float64
	SetDPI(dpi float64)
}

// RasterRenderer is a pixel based renderer able to report
// the region it has drawn.
type RasterRenderer interface {
	mixdraw.Renderer

	// FlushMinimalRegion returns the smallest region containing every
	// drawn pixel, as straight RGBA bytes with scanlines ordered
	// bottom-up (Height x Width x 4 bytes). A canvas with nothing
	// drawn must return an empty region.
	FlushMinimalRegion() ([]byte, mixdraw.Region)
}

// RasterFactory creates a raster renderer of width x height pixels
// at the given resolution.
type RasterFactory func(width, height, dpi float64) RasterRenderer

// BBoxHooks adjusts the host document (for instance a cropped
// bounding box) around raster transitions.
// Tokens are opaque to the compositor: each hook receives the token
// returned by the previous call.
type BBoxHooks interface {
	// PreRasterize is called on every StartRasterizing, after
	// the document resolution has been set to the raster resolution.
	PreRasterize(doc Document, token any) any

	// PostRasterize is called on every StopRasterizing.
	// `restoredDPI` is the document resolution when the outermost
	// session just ended, and 0 for nested sessions.
	PostRasterize(doc Document, token any, restoredDPI float64) any
}

var _ mixdraw.Renderer = (*Compositor)(nil)

// Compositor is a renderer delegating to a vector or a raster
// backend, depending on its mode.
type Compositor struct {
	doc    Document
	docDPI float64 // document resolution at creation

	width, height float64 // logical size of the canvas
	dpi           float64 // raster resolution

	vector    mixdraw.Renderer
	raster    RasterRenderer // nil when not rasterizing
	renderer  mixdraw.Renderer
	newRaster RasterFactory

	depth int // raster session nesting

	hooks       BBoxHooks
	bboxRestore any
}

// New returns a compositor drawing on `vector`, for a canvas of logical size
// width x height (in inches), rasterizing at `dpi` pixels per inch.
// The current resolution of `doc` is saved, and restored after each
// raster session.
// It panics if `doc` or `vector` is nil, or if `dpi` is not positive.
func New(doc Document, width, height, dpi float64, vector mixdraw.Renderer, opts ...Option) *Compositor {
	if doc == nil {
		panic("mixmode: nil document")
	}
	if vector == nil {
		panic("mixmode: nil vector renderer")
	}
	if dpi <= 0 {
		panic(fmt.Sprintf("mixmode: invalid raster resolution %g", dpi))
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Compositor{
		doc:         doc,
		docDPI:      doc.DPI(),
		width:       width,
		height:      height,
		dpi:         dpi,
		vector:      vector,
		renderer:    vector,
		newRaster:   o.rasterFactory,
		hooks:       o.hooks,
		bboxRestore: o.bboxRestore,
	}
}

// DPI returns the raster resolution.
func (c *Compositor) DPI() float64 { return c.dpi }

// DocumentDPI returns the document resolution saved at creation.
func (c *Compositor) DocumentDPI() float64 { return c.docDPI }

// Depth returns the number of nested raster sessions.
func (c *Compositor) Depth() int { return c.depth }

// Rasterizing returns true between the first StartRasterizing
// and the matching StopRasterizing.
func (c *Compositor) Rasterizing() bool { return c.depth > 0 }

// Vector returns the wrapped vector renderer.
func (c *Compositor) Vector() mixdraw.Renderer { return c.vector }

// Current returns the renderer receiving the drawing calls.
// The result should not be kept across mode changes.
func (c *Compositor) Current() mixdraw.Renderer { return c.renderer }

// BBoxRestore returns the current bounding box token.
func (c *Compositor) BBoxRestore() any { return c.bboxRestore }

func (c *Compositor) SetupDrawers(willFill, willStroke bool) (mixdraw.Filler, mixdraw.Stroker) {
	return c.renderer.SetupDrawers(willFill, willStroke)
}

func (c *Compositor) NewGC() *mixdraw.GraphicsContext {
	return c.renderer.NewGC()
}

func (c *Compositor) DrawImage(gc *mixdraw.GraphicsContext, x, y float64, img image.Image) {
	c.renderer.DrawImage(gc, x, y, img)
}

// PixelSize returns the image pixel size of the active renderer.
func (c *Compositor) PixelSize() float64 { return mixdraw.PixelSize(c.renderer) }

func (c *Compositor) hasBBoxRestore() bool { return c.hooks != nil && c.bboxRestore != nil }

// StartRasterizing enters raster mode: all subsequent drawing
// commands (until StopRasterizing is called) are drawn with the raster
// backend. Nested calls are supported, and share the same raster canvas.
func (c *Compositor) StartRasterizing() {
	if c.depth == 0 {
		// a failing raster factory leaves the compositor in vector mode
		defer func() {
			if c.depth == 0 {
				c.doc.SetDPI(c.docDPI)
			}
		}()
	}
	// change the resolution of the document temporarily
	c.doc.SetDPI(c.dpi)
	if c.hasBBoxRestore() {
		c.bboxRestore = c.hooks.PreRasterize(c.doc, c.bboxRestore)
	}
	if c.depth == 0 {
		c.raster = c.newRaster(c.width*c.dpi, c.height*c.dpi, c.dpi)
		c.renderer = c.raster
		Logger().Debug("mixmode: raster session started", "dpi", c.dpi,
			"width", c.width*c.dpi, "height", c.height*c.dpi)
	}
	c.depth++
}

// StopRasterizing exits raster mode. When the outermost session
// ends, everything drawn since the first StartRasterizing is copied to
// the vector backend as one image, and the document resolution is restored.
//
// StopRasterizing must be called exactly once per StartRasterizing:
// it panics otherwise.
func (c *Compositor) StopRasterizing() {
	if c.depth <= 0 {
		panic("mixmode: StopRasterizing called without a matching StartRasterizing")
	}
	c.depth--
	var restoredDPI float64
	if c.depth == 0 {
		c.endSession()
		restoredDPI = c.docDPI
	}
	if c.hasBBoxRestore() {
		c.bboxRestore = c.hooks.PostRasterize(c.doc, c.bboxRestore, restoredDPI)
	}
}

// endSession switches back to the vector backend and embeds the
// raster content. The document resolution is restored even if
// the backends fail.
func (c *Compositor) endSession() {
	raster := c.raster
	c.renderer, c.raster = c.vector, nil
	defer c.doc.SetDPI(c.docDPI)

	buf, region := raster.FlushMinimalRegion()
	if region.Empty() {
		Logger().Debug("mixmode: raster session ended with nothing drawn")
		return
	}
	img := mixdraw.NewNRGBA(mixdraw.FlipRows(buf, region.Width, region.Height), region.Width, region.Height)
	x, y := c.placement(region)
	gc := c.vector.NewGC()
	c.vector.DrawImage(gc, x, y, img)
	Logger().Debug("mixmode: raster region embedded", "region", region.String(), "x", x, "y", y)
}

// placement converts the position of `region` from raster pixels
// (bottom-left origin) to document units (top-left origin).
func (c *Compositor) placement(region mixdraw.Region) (x, y float64) {
	height := c.height * c.dpi
	x = float64(region.Left) * c.docDPI / c.dpi
	y = (height - float64(region.Bottom) - float64(region.Height)) * c.docDPI / c.dpi
	return x, y
}

// Rasterize runs `draw` inside a raster session, which is always closed,
// even if `draw` panics. The error returned by `draw` is passed through.
func (c *Compositor) Rasterize(draw func() error) error {
	c.StartRasterizing()
	defer c.StopRasterizing()
	return draw()
}
