package mixdraw

import (
	"fmt"
	"image"
)

// Region is an axis aligned rectangle of a pixel canvas, with
// a bottom-left origin: Bottom is the number of pixel rows between
// the bottom edge of the canvas and the bottom edge of the region.
type Region struct {
	Left, Bottom  int
	Width, Height int
}

// Empty returns true if the region has no pixel.
func (r Region) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Region) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", r.Left, r.Bottom, r.Width, r.Height)
}

// FlipRows returns a copy of the `height` scanlines of `width`
// RGBA pixels stored in `buf`, in reverse order.
// It panics if `buf` is too short.
func FlipRows(buf []byte, width, height int) []byte {
	stride := 4 * width
	if len(buf) < stride*height {
		panic(fmt.Sprintf("mixdraw: buffer of %d bytes too short for %dx%d RGBA pixels", len(buf), width, height))
	}
	out := make([]byte, stride*height)
	for row := 0; row < height; row++ {
		copy(out[(height-1-row)*stride:(height-row)*stride], buf[row*stride:(row+1)*stride])
	}
	return out
}

// NewNRGBA wraps top-down straight RGBA scanlines as an image, without copy.
func NewNRGBA(buf []byte, width, height int) *image.NRGBA {
	return &image.NRGBA{Pix: buf, Stride: 4 * width, Rect: image.Rect(0, 0, width, height)}
}
