package mixscene

import (
	"encoding/xml"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/mixmode/mixdraw"
	"golang.org/x/image/colornames"
	"golang.org/x/image/math/fixed"
)

// pointsPerInch converts line widths and dashes to figure units
const pointsPerInch = 72

// sceneStyle holds the inherited state of the scene style
type sceneStyle struct {
	mixdraw.Style
	transform  mixdraw.Matrix2D // current transform
	rasterized bool
}

// defaultStyle fills in black, without stroke, with
// a one point line width.
var defaultStyle = func() sceneStyle {
	s := sceneStyle{Style: mixdraw.DefaultStyle, transform: mixdraw.Identity}
	s.LineWidth = 1. / pointsPerInch
	return s
}()

// pushStyle parses the style attributes, and push the resulting style
// on the style stack. Both the content of a style attribute and
// direct attributes are supported.
func (c *sceneCursor) pushStyle(attrs []xml.Attr) error {
	var pairs []string
	for _, attr := range attrs {
		switch strings.ToLower(attr.Name.Local) {
		case "style":
			pairs = append(pairs, strings.Split(attr.Value, ";")...)
		default:
			pairs = append(pairs, attr.Name.Local+":"+attr.Value)
		}
	}
	// Make a copy of the top style
	curStyle := c.currentStyle()
	for _, pair := range pairs {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) == 2 {
			k := strings.TrimSpace(strings.ToLower(kv[0]))
			v := strings.TrimSpace(kv[1])
			if err := c.readStyleAttr(&curStyle, k, v); err != nil {
				return fmt.Errorf("attribute %s: %w", k, err)
			}
		}
	}
	c.styleStack = append(c.styleStack, curStyle) // Push style onto stack
	return nil
}

func (c *sceneCursor) readStyleAttr(curStyle *sceneStyle, k, v string) error {
	switch k {
	case "fill":
		col, err := c.readPaint(v)
		if err != nil {
			return err
		}
		curStyle.FillerColor = col
	case "stroke":
		col, err := c.readPaint(v)
		if err != nil {
			return err
		}
		curStyle.LinerColor = col
	case "fill-rule":
		curStyle.UseNonZeroWinding = v != "evenodd"
	case "stroke-linecap":
		switch v {
		case "butt":
			curStyle.Join.TrailLineCap = mixdraw.ButtCap
		case "round":
			curStyle.Join.TrailLineCap = mixdraw.RoundCap
		case "square":
			curStyle.Join.TrailLineCap = mixdraw.SquareCap
		case "cubic":
			curStyle.Join.TrailLineCap = mixdraw.CubicCap
		case "quadratic":
			curStyle.Join.TrailLineCap = mixdraw.QuadraticCap
		}
	case "stroke-linejoin":
		switch v {
		case "miter":
			curStyle.Join.LineJoin = mixdraw.Miter
		case "miter-clip":
			curStyle.Join.LineJoin = mixdraw.MiterClip
		case "arc-clip":
			curStyle.Join.LineJoin = mixdraw.ArcClip
		case "round":
			curStyle.Join.LineJoin = mixdraw.Round
		case "arc":
			curStyle.Join.LineJoin = mixdraw.Arc
		case "bevel":
			curStyle.Join.LineJoin = mixdraw.Bevel
		}
	case "stroke-miterlimit":
		mLimit, err := parseFloat(v)
		if err != nil {
			return err
		}
		curStyle.Join.MiterLimit = fixed.Int26_6(mLimit * 64)
	case "stroke-width":
		width, err := parseFloat(v)
		if err != nil {
			return err
		}
		curStyle.LineWidth = width / pointsPerInch
	case "stroke-dashoffset":
		dashOffset, err := parseFloat(v)
		if err != nil {
			return err
		}
		curStyle.Dash.DashOffset = dashOffset / pointsPerInch
	case "stroke-dasharray":
		if v == "none" {
			curStyle.Dash.Dash = nil
			break
		}
		dashes, err := parseNumbers(v)
		if err != nil {
			return err
		}
		for i := range dashes {
			dashes[i] /= pointsPerInch
		}
		curStyle.Dash.Dash = dashes
	case "opacity", "stroke-opacity", "fill-opacity":
		op, err := parseFloat(v)
		if err != nil {
			return err
		}
		if k != "stroke-opacity" {
			curStyle.FillOpacity *= op
		}
		if k != "fill-opacity" {
			curStyle.LineOpacity *= op
		}
	case "transform":
		m, err := parseTransform(curStyle.transform, v)
		if err != nil {
			return err
		}
		curStyle.transform = m
	case "rasterized":
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		curStyle.rasterized = b
	}
	return nil
}

func readTransformAttr(m1 mixdraw.Matrix2D, k string, points []float64) (mixdraw.Matrix2D, error) {
	ln := len(points)
	switch k {
	case "rotate":
		if ln == 1 {
			m1 = m1.Rotate(points[0] * math.Pi / 180)
		} else if ln == 3 {
			m1 = m1.Translate(points[1], points[2]).
				Rotate(points[0]*math.Pi/180).
				Translate(-points[1], -points[2])
		} else {
			return m1, errParamMismatch
		}
	case "translate":
		if ln == 1 {
			m1 = m1.Translate(points[0], 0)
		} else if ln == 2 {
			m1 = m1.Translate(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "scale":
		if ln == 1 {
			m1 = m1.Scale(points[0], points[0])
		} else if ln == 2 {
			m1 = m1.Scale(points[0], points[1])
		} else {
			return m1, errParamMismatch
		}
	case "matrix":
		if ln == 6 {
			m1 = m1.Mult(mixdraw.Matrix2D{
				A: points[0],
				B: points[1],
				C: points[2],
				D: points[3],
				E: points[4],
				F: points[5]})
		} else {
			return m1, errParamMismatch
		}
	default:
		return m1, fmt.Errorf("unsupported transform %s", k)
	}
	return m1, nil
}

// parseTransform applies the transforms listed in `v` to `m1`.
func parseTransform(m1 mixdraw.Matrix2D, v string) (mixdraw.Matrix2D, error) {
	for _, t := range strings.Split(v, ")") {
		t = strings.TrimSpace(t)
		if len(t) == 0 {
			continue
		}
		d := strings.Split(t, "(")
		if len(d) != 2 || len(d[1]) < 1 {
			return m1, errParamMismatch // badly formed transformation
		}
		points, err := parseNumbers(d[1])
		if err != nil {
			return m1, err
		}
		m1, err = readTransformAttr(m1, strings.ToLower(strings.TrimSpace(d[0])), points)
		if err != nil {
			return m1, err
		}
	}
	return m1, nil
}

// parseColor accepts #rgb, #rrggbb, rgb(r, g, b), color names and "none",
// which returns a nil pattern.
func parseColor(v string) (mixdraw.Pattern, error) {
	lv := strings.ToLower(strings.TrimSpace(v))
	switch {
	case lv == "none" || lv == "":
		return nil, nil
	case lv[0] == '#':
		c, err := parseHex(lv[1:])
		if err != nil {
			return nil, err
		}
		return mixdraw.PlainColor{NRGBA: c}, nil
	case strings.HasPrefix(lv, "rgb(") && strings.HasSuffix(lv, ")"):
		comps := splitOnCommaOrSpace(lv[4 : len(lv)-1])
		if len(comps) != 3 {
			return nil, errParamMismatch
		}
		var rgb [3]uint8
		for i, comp := range comps {
			n, err := strconv.ParseUint(comp, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid color %q: %w", v, err)
			}
			rgb[i] = uint8(n)
		}
		return mixdraw.NewPlainColor(rgb[0], rgb[1], rgb[2], 0xff), nil
	}
	nc, ok := colornames.Map[lv]
	if !ok {
		return nil, fmt.Errorf("unknown color %q", v)
	}
	return mixdraw.NewPlainColor(nc.R, nc.G, nc.B, nc.A), nil
}

func parseHex(x string) (color.NRGBA, error) {
	var out color.NRGBA
	switch len(x) {
	case 3:
		n, err := strconv.ParseUint(x, 16, 16)
		if err != nil {
			return out, fmt.Errorf("invalid color #%s: %w", x, err)
		}
		r, g, b := uint8(n>>8&0xf), uint8(n>>4&0xf), uint8(n&0xf)
		return color.NRGBA{R: r | r<<4, G: g | g<<4, B: b | b<<4, A: 0xff}, nil
	case 6:
		n, err := strconv.ParseUint(x, 16, 32)
		if err != nil {
			return out, fmt.Errorf("invalid color #%s: %w", x, err)
		}
		return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
	default:
		return out, fmt.Errorf("invalid color #%s", x)
	}
}

// parseColorValue is the same as parseColor, for attributes
// requiring an actual color.
func parseColorValue(v string) (color.NRGBA, error) {
	p, err := parseColor(v)
	if err != nil {
		return color.NRGBA{}, err
	}
	if p == nil {
		return color.NRGBA{}, nil // transparent
	}
	return p.(mixdraw.PlainColor).NRGBA, nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseNumbers reads a list of numbers separated by commas or spaces.
func parseNumbers(s string) ([]float64, error) {
	fields := splitOnCommaOrSpace(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := parseFloat(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// splitOnCommaOrSpace returns a list of strings after splitting the input on comma and space delimiters
func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s,
		func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
}
