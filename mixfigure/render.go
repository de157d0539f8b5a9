package mixfigure

import (
	"fmt"
	"image"
	"io"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/benoitkugler/mixmode/mixmode"
	"github.com/benoitkugler/mixmode/mixpdf"
	"github.com/benoitkugler/mixmode/mixpdf/alt"
	"github.com/benoitkugler/mixmode/mixraster"
)

// RenderImage rasterizes the whole figure at `dpi`.
// The resolution of the figure is restored afterwards.
func RenderImage(fig *Figure, dpi float64) (*image.RGBA, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("mixfigure: invalid resolution %g", dpi)
	}
	saved := fig.DPI()
	fig.SetDPI(dpi)
	defer fig.SetDPI(saved)

	w, h := fig.Size()
	rd := mixraster.NewRenderer(w*dpi, h*dpi, dpi)
	if err := fig.Draw(rd); err != nil {
		return nil, err
	}
	return rd.Image(), nil
}

// PDFBackend selects the library writing the PDF document.
type PDFBackend uint8

const (
	// GofpdfBackend shares the opacity between fill and stroke,
	// and approximates gradients by their first color.
	GofpdfBackend PDFBackend = iota
	// ContentStreamBackend keeps fill and stroke opacities apart,
	// and writes gradient fills as PDF shadings.
	ContentStreamBackend
)

func (b PDFBackend) String() string {
	switch b {
	case GofpdfBackend:
		return "gofpdf"
	case ContentStreamBackend:
		return "contentstream"
	default:
		return fmt.Sprintf("<invalid backend %d>", uint8(b))
	}
}

// ParsePDFBackend returns the backend named `name`,
// either "gofpdf" or "contentstream".
func ParsePDFBackend(name string) (PDFBackend, error) {
	switch name {
	case "gofpdf", "":
		return GofpdfBackend, nil
	case "contentstream":
		return ContentStreamBackend, nil
	default:
		return 0, fmt.Errorf("mixfigure: unknown PDF backend %q", name)
	}
}

// pdfRenderer is implemented by the PDF backends
type pdfRenderer interface {
	mixdraw.Renderer
	Output(w io.Writer) error
}

func newPDFRenderer(backend PDFBackend, widthPt, heightPt, rasterDPI float64) (pdfRenderer, error) {
	switch backend {
	case GofpdfBackend:
		return mixpdf.NewRenderer(mixpdf.NewDocument(widthPt, heightPt), rasterDPI), nil
	case ContentStreamBackend:
		return alt.NewRenderer(widthPt, heightPt, rasterDPI), nil
	default:
		return nil, fmt.Errorf("mixfigure: unknown PDF backend %d", backend)
	}
}

// PDFOptions configures RenderPDF.
type PDFOptions struct {
	// Backend is the library writing the document,
	// GofpdfBackend by default.
	Backend PDFBackend

	// RasterDPI is the resolution of the rasterized artists.
	// It defaults to the figure resolution.
	RasterDPI float64

	// Tight crops the page to the extents of the artists,
	// grown by Pad inches (DefaultPad if zero).
	Tight bool
	Pad   float64
}

// RenderPDF writes the figure as a one page PDF document,
// in which rasterized artists are embedded as images.
// The figure is restored afterwards.
func RenderPDF(fig *Figure, w io.Writer, opts PDFOptions) error {
	rasterDPI := opts.RasterDPI
	if rasterDPI <= 0 {
		rasterDPI = fig.DPI()
	}
	if rasterDPI <= 0 {
		return fmt.Errorf("mixfigure: invalid raster resolution %g", rasterDPI)
	}

	if opts.Backend > ContentStreamBackend {
		return fmt.Errorf("mixfigure: unknown PDF backend %d", opts.Backend)
	}

	// PDF device units are points
	saved := fig.DPI()
	fig.SetDPI(72)
	defer fig.SetDPI(saved)

	var copts []mixmode.Option
	if opts.Tight {
		pad := opts.Pad
		if pad == 0 {
			pad = DefaultPad
		}
		bbox := fig.TightBBox(pad)
		token := BBoxRestore{BBox: bbox, Restore: fig.AdjustBBox(bbox, 0)}
		copts = append(copts, mixmode.WithBBoxRestore(TightBBoxHooks{}, token))
	}

	width, height := fig.Size()
	vector, err := newPDFRenderer(opts.Backend, width*72, height*72, rasterDPI)
	if err != nil {
		return err
	}
	c := mixmode.New(fig, width, height, rasterDPI, vector, copts...)
	if opts.Tight {
		// the hooks replace the adjustment on each transition
		defer func() { c.BBoxRestore().(BBoxRestore).Restore() }()
	}

	mixmode.Logger().Debug("mixfigure: rendering PDF", "width", width, "height", height, "rasterDPI", rasterDPI, "backend", opts.Backend)
	if err := fig.Draw(c); err != nil {
		return err
	}
	return vector.Output(w)
}
