package mixdraw

import (
	"math"

	"golang.org/x/image/math/fixed"
)

// Style holds the painting attributes of a path.
// A nil color disables the corresponding operation.
type Style struct {
	FillOpacity, LineOpacity float64
	LineWidth                float64 // in user space units
	UseNonZeroWinding        bool

	Join                    JoinOptions
	Dash                    DashOptions
	FillerColor, LinerColor Pattern // either PlainColor or Gradient
}

// DefaultStyle sets the default Style to fill black, winding rule,
// full opacity, no stroke, ButtCap line end and Bevel line connect.
var DefaultStyle = Style{
	FillOpacity:       1.0,
	LineOpacity:       1.0,
	LineWidth:         1.0,
	UseNonZeroWinding: true,
	Join: JoinOptions{
		MiterLimit:   fixed.Int26_6(4 * 64),
		LineJoin:     Bevel,
		TrailLineCap: ButtCap,
	},
	FillerColor: NewPlainColor(0x00, 0x00, 0x00, 0xff),
}

// DrawPath draws the path into the renderer `r` while applying transform `M`.
// The line width and dashes are scaled by the transform, as well as
// gradients expressed in user space.
func DrawPath(r Renderer, p Path, style Style, opacity float64, M Matrix2D) {
	style.FillerColor = inDeviceSpace(style.FillerColor, M)
	style.LinerColor = inDeviceSpace(style.LinerColor, M)
	filler, stroker := r.SetupDrawers(style.FillerColor != nil, style.LinerColor != nil)
	if filler != nil { // nil color disable filling
		filler.Clear()
		filler.SetWinding(style.UseNonZeroWinding)

		p.DrawTo(filler, M)
		filler.Stop(false)

		filler.Draw(style.FillerColor, style.FillOpacity*opacity)
		filler.SetWinding(true) // default is true
	}

	if stroker != nil { // nil color disable lining
		stroker.Clear()

		scale := scaleFactor(M)
		lineGap := style.Join.LineGap
		if lineGap == NilGap {
			lineGap = DefaultStyle.Join.LineGap
		}
		lineCap := style.Join.TrailLineCap
		if lineCap == NilCap {
			lineCap = DefaultStyle.Join.TrailLineCap
		}
		leadLineCap := lineCap
		if style.Join.LeadLineCap != NilCap {
			leadLineCap = style.Join.LeadLineCap
		}
		var dash []float64
		for _, d := range style.Dash.Dash {
			dash = append(dash, d*scale)
		}
		stroker.SetStrokeOptions(StrokeOptions{
			LineWidth: fixed.Int26_6(style.LineWidth * scale * 64),
			Join: JoinOptions{
				MiterLimit:   style.Join.MiterLimit,
				LineJoin:     style.Join.LineJoin,
				LeadLineCap:  leadLineCap,
				TrailLineCap: lineCap,
				LineGap:      lineGap,
			},
			Dash: DashOptions{Dash: dash, DashOffset: style.Dash.DashOffset * scale},
		})

		p.DrawTo(stroker, M)
		stroker.Stop(false)

		stroker.Draw(style.LinerColor, style.LineOpacity*opacity)
	}
}

// scaleFactor returns the geometric mean of the scaling
// of the transform, used for line widths.
func scaleFactor(M Matrix2D) float64 {
	det := M.A*M.D - M.B*M.C
	if det < 0 {
		det = -det
	}
	return math.Sqrt(det)
}
