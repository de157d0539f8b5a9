package mixdraw

import (
	"image/color"

	"github.com/srwiley/rasterx"
)

// Matrix2D is the affine transform applied to path points.
type Matrix2D = rasterx.Matrix2D

// Identity is the identity transform.
var Identity = rasterx.Identity

// Pattern is the color source of a fill or a stroke:
// either PlainColor or Gradient
type Pattern interface {
	isPattern()
}

// PlainColor is a uniform color.
type PlainColor struct {
	color.NRGBA
}

// NewPlainColor returns a plain color from non premultiplied components.
func NewPlainColor(r, g, b, a uint8) PlainColor {
	return PlainColor{NRGBA: color.NRGBA{R: r, G: g, B: b, A: a}}
}

func (PlainColor) isPattern() {}
func (Gradient) isPattern()   {}

// GradientUnits is the type for gradient units
type GradientUnits byte

// bounds parameter constants
const (
	ObjectBoundingBox GradientUnits = iota
	UserSpaceOnUse
)

// SpreadMethod is the type for spread parameters
type SpreadMethod byte

// spread parameter constants
const (
	PadSpread SpreadMethod = iota
	ReflectSpread
	RepeatSpread
)

// GradStop represents a stop in the SVG 2.0 gradient specification
type GradStop struct {
	StopColor color.Color
	Offset    float64
	Opacity   float64
}

// Gradient holds a description of an SVG 2.0 gradient
type Gradient struct {
	Direction GradientDirection
	Stops     []GradStop
	Bounds    struct{ X, Y, W, H float64 }
	Matrix    Matrix2D
	Spread    SpreadMethod
	Units     GradientUnits
}

// GradientDirection is either Linear or Radial
type GradientDirection interface {
	isRadial() bool
}

// x1, y1, x2, y2
type Linear [4]float64

func (Linear) isRadial() bool { return false }

// cx, cy, fx, fy, r, fr
type Radial [6]float64

func (Radial) isRadial() bool { return true }

// FirstColor returns the color of the first stop, with the
// stop opacity applied, or transparent black for a gradient without stops.
// It is used by backends which can't render gradients.
func (g Gradient) FirstColor() PlainColor {
	if len(g.Stops) == 0 {
		return PlainColor{}
	}
	s := g.Stops[0]
	c := color.NRGBAModel.Convert(s.StopColor).(color.NRGBA)
	c.A = uint8(float64(c.A) * s.Opacity)
	return NewPlainColor(c.R, c.G, c.B, c.A)
}

// inDeviceSpace returns `p`, with the coordinates of user space
// gradients mapped by `M`.
func inDeviceSpace(p Pattern, M Matrix2D) Pattern {
	g, ok := p.(Gradient)
	if !ok || g.Units != UserSpaceOnUse {
		return p
	}
	g.Matrix = M.Mult(g.Matrix)
	return g
}
