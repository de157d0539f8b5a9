package mixraster

import (
	"image"
	"image/color"

	"github.com/benoitkugler/mixmode/mixdraw"
)

// contentExtents returns the smallest rectangle containing
// every pixel with a non zero alpha, in image coordinates.
// An empty canvas returns an empty rectangle.
func contentExtents(img *image.RGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X, b.Min.Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for x := 0; x < b.Dx(); x++ {
			if row[4*x+3] == 0 {
				continue
			}
			px := b.Min.X + x
			minX, maxX = min(minX, px), max(maxX, px+1)
			minY, maxY = min(minY, y), max(maxY, y+1)
		}
	}
	if minX >= maxX || minY >= maxY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX, maxY)
}

// FlushMinimalRegion returns the content of the smallest region
// holding drawn pixels, as straight (non premultiplied) RGBA
// bytes with scanlines ordered bottom-up, together with the region
// position, measured from the bottom-left corner of the canvas.
// Nothing drawn yields an empty region and a nil buffer.
func (rd *Renderer) FlushMinimalRegion() ([]byte, mixdraw.Region) {
	ext := contentExtents(rd.img)
	if ext.Empty() {
		return nil, mixdraw.Region{}
	}
	w, h := ext.Dx(), ext.Dy()
	out := make([]byte, 0, 4*w*h)
	for y := ext.Max.Y - 1; y >= ext.Min.Y; y-- {
		for x := ext.Min.X; x < ext.Max.X; x++ {
			c := color.NRGBAModel.Convert(rd.img.RGBAAt(x, y)).(color.NRGBA)
			out = append(out, c.R, c.G, c.B, c.A)
		}
	}
	canvasHeight := rd.img.Bounds().Dy()
	region := mixdraw.Region{
		Left:   ext.Min.X - rd.img.Bounds().Min.X,
		Bottom: canvasHeight - (ext.Max.Y - rd.img.Bounds().Min.Y),
		Width:  w,
		Height: h,
	}
	return out, region
}
