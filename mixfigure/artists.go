package mixfigure

import (
	"image"
	"image/color"
	"math"

	"github.com/benoitkugler/mixmode/mixdraw"
	xdraw "golang.org/x/image/draw"
)

// PathArtist draws a path, expressed in inches.
// The line width of the style is in inches too.
type PathArtist struct {
	Path      mixdraw.Path
	Style     mixdraw.Style
	Opacity   float64
	Transform mixdraw.Matrix2D // applied before the figure transform
	Raster    bool
}

// NewPathArtist returns an opaque, untransformed path artist.
func NewPathArtist(p mixdraw.Path, style mixdraw.Style) *PathArtist {
	return &PathArtist{Path: p, Style: style, Opacity: 1, Transform: mixdraw.Identity}
}

func (pa *PathArtist) Draw(r mixdraw.Renderer, fig *Figure) {
	mixdraw.DrawPath(r, pa.Path, pa.Style, pa.Opacity, fig.Transform().Mult(pa.Transform))
}

// Extents includes half the line width when the path is stroked.
func (pa *PathArtist) Extents() mixdraw.Bounds {
	b := pa.Path.Bounds(pa.Transform)
	if pa.Style.LinerColor != nil {
		b = b.Pad(pa.Style.LineWidth / 2)
	}
	return b
}

func (pa *PathArtist) Rasterized() bool { return pa.Raster }

// Mesh is a grid of Rows x Cols filled cells, whose color
// goes linearly from `From` (top left cell) to `To` (bottom right cell).
// Dense meshes are typical candidates for rasterization.
type Mesh struct {
	X, Y, Width, Height float64 // in inches
	Rows, Cols          int
	From, To            color.NRGBA
	Opacity             float64
	Transform           mixdraw.Matrix2D // zero value means identity
	Raster              bool
}

// NewMesh returns an opaque, untransformed mesh.
func NewMesh(x, y, width, height float64, rows, cols int, from, to color.NRGBA) *Mesh {
	return &Mesh{
		X: x, Y: y, Width: width, Height: height,
		Rows: rows, Cols: cols, From: from, To: to,
		Opacity: 1, Transform: mixdraw.Identity,
	}
}

func (m *Mesh) transform() mixdraw.Matrix2D {
	if m.Transform == (mixdraw.Matrix2D{}) {
		return mixdraw.Identity
	}
	return m.Transform
}

// cellColor interpolates the color of the cell (i, j).
func (m *Mesh) cellColor(i, j int) mixdraw.PlainColor {
	t := 0.
	if steps := m.Rows + m.Cols - 2; steps > 0 {
		t = float64(i+j) / float64(steps)
	}
	lerp := func(a, b uint8) uint8 { return uint8(float64(a) + t*(float64(b)-float64(a)) + 0.5) }
	return mixdraw.NewPlainColor(lerp(m.From.R, m.To.R), lerp(m.From.G, m.To.G), lerp(m.From.B, m.To.B), lerp(m.From.A, m.To.A))
}

func (m *Mesh) Draw(r mixdraw.Renderer, fig *Figure) {
	if m.Rows <= 0 || m.Cols <= 0 {
		return
	}
	M := fig.Transform().Mult(m.transform())
	cw, ch := m.Width/float64(m.Cols), m.Height/float64(m.Rows)
	style := mixdraw.DefaultStyle
	var p mixdraw.Path
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			x, y := m.X+float64(j)*cw, m.Y+float64(i)*ch
			p.Clear()
			p.AddRect(x, y, x+cw, y+ch, 0)
			style.FillerColor = m.cellColor(i, j)
			mixdraw.DrawPath(r, p, style, m.Opacity, M)
		}
	}
}

func (m *Mesh) Extents() mixdraw.Bounds {
	if m.Rows <= 0 || m.Cols <= 0 {
		return mixdraw.Bounds{}
	}
	var p mixdraw.Path
	p.AddRect(m.X, m.Y, m.X+m.Width, m.Y+m.Height, 0)
	return p.Bounds(m.transform())
}

func (m *Mesh) Rasterized() bool { return m.Raster }

// ImageArtist draws an image with its top left corner at (X, Y) inches.
// DPI is the resolution of the image, which defaults to 72:
// the image is resampled to the resolution of the renderer.
type ImageArtist struct {
	Img    image.Image
	X, Y   float64
	DPI    float64
	Alpha  float64
	Raster bool
}

// NewImageArtist returns an opaque image artist.
func NewImageArtist(img image.Image, x, y, dpi float64) *ImageArtist {
	return &ImageArtist{Img: img, X: x, Y: y, DPI: dpi, Alpha: 1}
}

func (ia *ImageArtist) dpi() float64 {
	if ia.DPI <= 0 {
		return 72
	}
	return ia.DPI
}

func (ia *ImageArtist) Draw(r mixdraw.Renderer, fig *Figure) {
	x, y := fig.Transform().Transform(ia.X, ia.Y)
	gc := r.NewGC()
	gc.Alpha = ia.Alpha
	r.DrawImage(gc, x, y, ia.resample(fig.DPI()/mixdraw.PixelSize(r)))
}

// resample returns the image at `dpi`, in pixels per inch.
func (ia *ImageArtist) resample(dpi float64) image.Image {
	scale := dpi / ia.dpi()
	src := ia.Img.Bounds()
	w := int(math.Round(float64(src.Dx()) * scale))
	h := int(math.Round(float64(src.Dy()) * scale))
	if (w == src.Dx() && h == src.Dy()) || w <= 0 || h <= 0 {
		return ia.Img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), ia.Img, src, xdraw.Src, nil)
	return dst
}

func (ia *ImageArtist) Extents() mixdraw.Bounds {
	size := ia.Img.Bounds().Size()
	return mixdraw.Bounds{X: ia.X, Y: ia.Y, W: float64(size.X) / ia.dpi(), H: float64(size.Y) / ia.dpi()}
}

func (ia *ImageArtist) Rasterized() bool { return ia.Raster }
