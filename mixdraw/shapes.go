package mixdraw

import (
	"math"
)

// This file implements the transformation from
// high level shapes to their path equivalent

// maxDx is the maximum radians a cubic splice is allowed to span
// in ellipse parametric when approximating an ellipse.
const maxDx float64 = math.Pi / 8

// pathAdder applies a transform to the points it adds to its path
type pathAdder struct {
	M    Matrix2D
	path *Path
}

func (q pathAdder) start(x, y float64) {
	x, y = q.M.Transform(x, y)
	q.path.Start(x, y)
}

func (q pathAdder) line(x, y float64) {
	x, y = q.M.Transform(x, y)
	q.path.Line(x, y)
}

func (q pathAdder) cubic(x1, y1, x2, y2, x3, y3 float64) {
	x1, y1 = q.M.Transform(x1, y1)
	x2, y2 = q.M.Transform(x2, y2)
	x3, y3 = q.M.Transform(x3, y3)
	q.path.CubeBezier(Point{x1, y1}, Point{x2, y2}, Point{x3, y3})
}

// AddRect adds a rectangle of the indicated size, rotated
// around the center by rot degrees.
func (p *Path) AddRect(minX, minY, maxX, maxY, rot float64) {
	rot *= math.Pi / 180
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	m := Identity.Translate(cx, cy).Rotate(rot).Translate(-cx, -cy)
	q := pathAdder{M: m, path: p}
	q.start(minX, minY)
	q.line(maxX, minY)
	q.line(maxX, maxY)
	q.line(minX, maxY)
	p.Stop(true)
}

// AddRoundRect adds a rectangle with rounded corners of radius
// rx in the x axis and ry in the y axis.
func (p *Path) AddRoundRect(minX, minY, maxX, maxY, rx, ry float64) {
	if rx <= 0 || ry <= 0 {
		p.AddRect(minX, minY, maxX, maxY, 0)
		return
	}
	if w := maxX - minX; w < rx*2 {
		rx = w / 2
	}
	if h := maxY - minY; h < ry*2 {
		ry = h / 2
	}
	q := pathAdder{M: Identity, path: p}
	q.start(minX+rx, minY)
	q.line(maxX-rx, minY)
	p.addArc(maxX-rx, minY+ry, rx, ry, -math.Pi/2, 0)
	q.line(maxX, maxY-ry)
	p.addArc(maxX-rx, maxY-ry, rx, ry, 0, math.Pi/2)
	q.line(minX+rx, maxY)
	p.addArc(minX+rx, maxY-ry, rx, ry, math.Pi/2, math.Pi)
	q.line(minX, minY+ry)
	p.addArc(minX+rx, minY+ry, rx, ry, math.Pi, 3*math.Pi/2)
	p.Stop(true)
}

// AddEllipse adds a full, axis aligned ellipse centered at (cx, cy).
func (p *Path) AddEllipse(cx, cy, rx, ry float64) {
	p.Start(cx+rx, cy)
	p.addArc(cx, cy, rx, ry, 0, 2*math.Pi)
	p.Stop(true)
}

// AddPolygon adds a closed polygon. Less than two points are ignored.
func (p *Path) AddPolygon(points []Point) {
	if len(points) < 2 {
		return
	}
	p.Start(points[0].X, points[0].Y)
	for _, pt := range points[1:] {
		p.Line(pt.X, pt.Y)
	}
	p.Stop(true)
}

// addArc adds the elliptical arc between the parameters etaStart and etaEnd,
// assuming the current point is already the start of the arc.
func (p *Path) addArc(cx, cy, rx, ry, etaStart, etaEnd float64) {
	p.addRotatedArc(cx, cy, rx, ry, 0, etaStart, etaEnd)
}

// addRotatedArc is addArc for an ellipse whose x axis is rotated by rotX radians.
func (p *Path) addRotatedArc(cx, cy, rx, ry, rotX, etaStart, etaEnd float64) (lx, ly float64) {
	deltaEta := etaEnd - etaStart
	// Round up to determine number of cubic splines to approximate bezier curve
	segs := int(math.Abs(deltaEta)/maxDx) + 1
	dEta := deltaEta / float64(segs) // span of each segment
	// Approximate the ellipse using a set of cubic bezier curves by the method of
	// L. Maisonobe, "Drawing an elliptical arc using polylines, quadratic
	// or cubic Bezier curves", 2003
	// https://www.spaceroots.org/documents/elllipse/elliptical-arc.pdf
	tde := math.Tan(dEta / 2)
	alpha := math.Sin(dEta) * (math.Sqrt(4+3*tde*tde) - 1) / 3
	sinTheta, cosTheta := math.Sin(rotX), math.Cos(rotX)
	lx, ly = ellipsePointAt(rx, ry, sinTheta, cosTheta, etaStart, cx, cy)
	ldx, ldy := ellipsePrime(rx, ry, sinTheta, cosTheta, etaStart)
	q := pathAdder{M: Identity, path: p}
	for i := 1; i <= segs; i++ {
		eta := etaStart + dEta*float64(i)
		px, py := ellipsePointAt(rx, ry, sinTheta, cosTheta, eta, cx, cy)
		dx, dy := ellipsePrime(rx, ry, sinTheta, cosTheta, eta)
		q.cubic(lx+alpha*ldx, ly+alpha*ldy, px-alpha*dx, py-alpha*dy, px, py)
		lx, ly, ldx, ldy = px, py, dx, dy
	}
	return lx, ly
}

// ArcTo adds an elliptical arc from `start`, which must be the current point,
// to `end`, following the SVG conventions: rx and ry are the radii,
// rotX the rotation of the x axis in degrees.
// Radii too small to join the points are scaled up; a zero radius
// yields a straight line.
func (p *Path) ArcTo(start Point, rx, ry, rotX float64, largeArc, sweep bool, end Point) {
	if start == end {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		p.Line(end.X, end.Y)
		return
	}
	rotX *= math.Pi / 180
	cx, cy := findEllipseCenter(&rx, &ry, rotX, start, end, sweep, !largeArc)

	startAngle := math.Atan2(start.Y-cy, start.X-cx) - rotX
	endAngle := math.Atan2(end.Y-cy, end.X-cx) - rotX
	arcBig := math.Abs(endAngle-startAngle) > math.Pi

	etaStart := math.Atan2(math.Sin(startAngle)/ry, math.Cos(startAngle)/rx)
	etaEnd := math.Atan2(math.Sin(endAngle)/ry, math.Cos(endAngle)/rx)
	deltaEta := etaEnd - etaStart
	if arcBig != largeArc {
		if deltaEta < 0 {
			deltaEta += math.Pi * 2
		} else {
			deltaEta -= math.Pi * 2
		}
	}
	// the center may be the midpoint of start and end
	if deltaEta < 0 && sweep {
		deltaEta += math.Pi * 2
	} else if deltaEta >= 0 && !sweep {
		deltaEta -= math.Pi * 2
	}
	p.addRotatedArc(cx, cy, rx, ry, rotX, etaStart, etaStart+deltaEta)
	// remove the roundoff error on the end point
	if last := len(*p) - 1; last >= 0 {
		if c, ok := (*p)[last].(CubicTo); ok {
			c[2] = end
			(*p)[last] = c
		}
	}
}

// findEllipseCenter locates the center of the ellipse. If it does not exist,
// the radii are increased minimally for a solution to be possible,
// preserving their ratio.
// The problem is reduced to finding the center of a circle that includes the origin
// and an arbitrary point, which is then transformed back to the original coordinates.
func findEllipseCenter(ra, rb *float64, rotX float64, start, end Point, sweep, smallArc bool) (cx, cy float64) {
	cos, sin := math.Cos(rotX), math.Sin(rotX)

	// Move origin to start point
	nx, ny := end.X-start.X, end.Y-start.Y

	// Rotate ellipse x-axis to coordinate x-axis
	nx, ny = nx*cos+ny*sin, -nx*sin+ny*cos
	// Scale X dimension so that ra = rb
	nx *= *rb / *ra

	midX, midY := nx/2, ny/2
	midlenSq := midX*midX + midY*midY

	var hr float64
	if *rb**rb < midlenSq {
		// the span is wider than the ellipse
		nrb := math.Sqrt(midlenSq)
		if *ra == *rb {
			*ra = nrb // prevents roundoff
		} else {
			*ra = *ra * nrb / *rb
		}
		*rb = nrb
	} else {
		hr = math.Sqrt(*rb**rb-midlenSq) / math.Sqrt(midlenSq)
	}
	if sweep == smallArc {
		cx = midX + midY*hr
		cy = midY - midX*hr
	} else {
		cx = midX - midY*hr
		cy = midY + midX*hr
	}

	// reverse scale
	cx *= *ra / *rb
	// reverse rotate and translate back to original coordinates
	return cx*cos - cy*sin + start.X, cx*sin + cy*cos + start.Y
}

// ellipsePrime gives tangent vectors for parameterized ellipse; a, b, radii, eta parameter
func ellipsePrime(a, b, sinTheta, cosTheta, eta float64) (px, py float64) {
	bCosEta := b * math.Cos(eta)
	aSinEta := a * math.Sin(eta)
	return -aSinEta*cosTheta - bCosEta*sinTheta, -aSinEta*sinTheta + bCosEta*cosTheta
}

// ellipsePointAt gives points for parameterized ellipse; a, b, radii, eta parameter, center cx, cy
func ellipsePointAt(a, b, sinTheta, cosTheta, eta, cx, cy float64) (px, py float64) {
	aCosEta := a * math.Cos(eta)
	bSinEta := b * math.Sin(eta)
	return cx + aCosEta*cosTheta - bSinEta*sinTheta, cy + aCosEta*sinTheta + bSinEta*cosTheta
}
