package mixmode

import "github.com/benoitkugler/mixmode/mixraster"

// Option configures a Compositor during creation.
//
// Example:
//
//	c := mixmode.New(fig, 6, 4, 300, pdfRenderer,
//	    mixmode.WithBBoxRestore(mixfigure.TightBBoxHooks{}, token))
type Option func(*options)

type options struct {
	rasterFactory RasterFactory
	hooks         BBoxHooks
	bboxRestore   any
}

func defaultOptions() options {
	return options{rasterFactory: defaultRasterFactory}
}

var _ RasterRenderer = (*mixraster.Renderer)(nil)

// defaultRasterFactory uses the in-memory rasterx backend.
func defaultRasterFactory(width, height, dpi float64) RasterRenderer {
	return mixraster.NewRenderer(width, height, dpi)
}

// WithRasterFactory replaces the raster backend used
// for each raster session. A nil factory is ignored.
func WithRasterFactory(f RasterFactory) Option {
	return func(o *options) {
		if f != nil {
			o.rasterFactory = f
		}
	}
}

// WithBBoxRestore registers the hooks adjusting the host document
// around raster transitions, and their initial opaque token.
// A nil token disables the hooks, as no adjustment is pending.
func WithBBoxRestore(hooks BBoxHooks, token any) Option {
	return func(o *options) {
		o.hooks = hooks
		o.bboxRestore = token
	}
}
