package mixscene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/benoitkugler/mixmode/mixdraw"
)

var errZeroLengthID = errors.New("zero length id")

func defsF(c *sceneCursor, _ []xml.Attr) error {
	c.inDefs = true
	return nil
}

// newGradient starts a gradient definition, registered under its id.
// Coordinates are fractions of the bounding box of the painted
// shape, unless gradientUnits is userSpaceOnUse.
func (c *sceneCursor) newGradient(direction mixdraw.GradientDirection, attrs []xml.Attr) error {
	c.grad = &mixdraw.Gradient{Direction: direction, Matrix: mixdraw.Identity}
	c.grad.Bounds.W, c.grad.Bounds.H = 1, 1
	for _, attr := range attrs {
		var err error
		switch attr.Name.Local {
		case "id":
			if attr.Value == "" {
				return errZeroLengthID
			}
			c.grads[attr.Value] = c.grad
		case "gradientUnits":
			switch strings.TrimSpace(attr.Value) {
			case "userSpaceOnUse":
				c.grad.Units = mixdraw.UserSpaceOnUse
			case "objectBoundingBox":
				c.grad.Units = mixdraw.ObjectBoundingBox
			}
		case "spreadMethod":
			switch strings.TrimSpace(attr.Value) {
			case "pad":
				c.grad.Spread = mixdraw.PadSpread
			case "reflect":
				c.grad.Spread = mixdraw.ReflectSpread
			case "repeat":
				c.grad.Spread = mixdraw.RepeatSpread
			}
		case "gradientTransform":
			c.grad.Matrix, err = parseTransform(mixdraw.Identity, attr.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func linearGradientF(c *sceneCursor, attrs []xml.Attr) error {
	if err := c.newGradient(nil, attrs); err != nil {
		return err
	}
	direction := mixdraw.Linear{0, 0, 1, 0}
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			direction[0], err = readFraction(attr.Value)
		case "y1":
			direction[1], err = readFraction(attr.Value)
		case "x2":
			direction[2], err = readFraction(attr.Value)
		case "y2":
			direction[3], err = readFraction(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	c.grad.Direction = direction
	return nil
}

func radialGradientF(c *sceneCursor, attrs []xml.Attr) error {
	if err := c.newGradient(nil, attrs); err != nil {
		return err
	}
	direction := mixdraw.Radial{0.5, 0.5, 0.5, 0.5, 0.5, 0}
	var setFx, setFy bool
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			direction[0], err = readFraction(attr.Value)
		case "cy":
			direction[1], err = readFraction(attr.Value)
		case "fx":
			setFx = true
			direction[2], err = readFraction(attr.Value)
		case "fy":
			setFy = true
			direction[3], err = readFraction(attr.Value)
		case "r":
			direction[4], err = readFraction(attr.Value)
		case "fr":
			direction[5], err = readFraction(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	if !setFx { // the focus defaults to the center
		direction[2] = direction[0]
	}
	if !setFy {
		direction[3] = direction[1]
	}
	c.grad.Direction = direction
	return nil
}

// stopF adds a stop to the current gradient. Stops outside
// of a gradient are ignored.
func stopF(c *sceneCursor, attrs []xml.Attr) error {
	if c.grad == nil {
		return nil
	}
	stop := mixdraw.GradStop{StopColor: color.NRGBA{A: 0xff}, Opacity: 1}
	var pairs [][2]string
	for _, attr := range attrs {
		if attr.Name.Local != "style" {
			pairs = append(pairs, [2]string{attr.Name.Local, attr.Value})
			continue
		}
		for _, pair := range strings.Split(attr.Value, ";") {
			if kv := strings.SplitN(pair, ":", 2); len(kv) == 2 {
				pairs = append(pairs, [2]string{strings.TrimSpace(kv[0]), kv[1]})
			}
		}
	}
	for _, kv := range pairs {
		var err error
		switch kv[0] {
		case "offset":
			stop.Offset, err = readFraction(kv[1])
		case "stop-color":
			stop.StopColor, err = parseColorValue(kv[1])
		case "stop-opacity":
			stop.Opacity, err = parseFloat(kv[1])
		}
		if err != nil {
			return fmt.Errorf("stop %s: %w", kv[0], err)
		}
	}
	c.grad.Stops = append(c.grad.Stops, stop)
	return nil
}

// readFraction accepts a number or a percentage.
func readFraction(v string) (float64, error) {
	v = strings.TrimSpace(v)
	d := 1.0
	if strings.HasSuffix(v, "%") {
		d = 100
		v = strings.TrimSuffix(v, "%")
	}
	f, err := parseFloat(v)
	return f / d, err
}

// readPaint resolves a color or a url(#id) reference to a gradient
// defined earlier in the scene.
func (c *sceneCursor) readPaint(v string) (mixdraw.Pattern, error) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "url(") {
		return parseColor(v)
	}
	if !strings.HasSuffix(v, ")") {
		return nil, fmt.Errorf("invalid paint %q", v)
	}
	id := strings.TrimSpace(v[len("url(") : len(v)-1])
	id = strings.TrimPrefix(id, "#")
	grad, ok := c.grads[id]
	if !ok {
		return nil, fmt.Errorf("unknown gradient %q", id)
	}
	// the stops are copied since the backends may sort them
	g := *grad
	g.Stops = append([]mixdraw.GradStop(nil), grad.Stops...)
	return g, nil
}
