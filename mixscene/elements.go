package mixscene

import (
	"encoding/xml"
	"errors"
	"image/color"
	"strconv"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/benoitkugler/mixmode/mixfigure"
)

type sceneFunc func(c *sceneCursor, attrs []xml.Attr) error

var drawFuncs = map[string]sceneFunc{
	"figure":   figureF,
	"g":        gF,
	"title":    titleF,
	"rect":     rectF,
	"circle":   circleF,
	"ellipse":  circleF, // circleF handles ellipse also
	"line":     lineF,
	"polyline": polylineF,
	"polygon":  polygonF,
	"path":     pathF,
	"mesh":     meshF,

	"defs":           defsF,
	"linearGradient": linearGradientF,
	"radialGradient": radialGradientF,
	"stop":           stopF,
}

func figureF(c *sceneCursor, attrs []xml.Attr) error {
	if c.fig != nil {
		return errors.New("nested figure")
	}
	width, height, dpi := 0., 0., 72.
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "width":
			width, err = parseFloat(attr.Value)
		case "height":
			height, err = parseFloat(attr.Value)
		case "dpi":
			dpi, err = parseFloat(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	if width <= 0 || height <= 0 || dpi <= 0 {
		return errParamMismatch
	}
	c.fig = mixfigure.New(width, height, dpi)
	return nil
}

func gF(*sceneCursor, []xml.Attr) error { return nil } // g does nothing but push the style

func titleF(c *sceneCursor, _ []xml.Attr) error {
	c.inTitle = true
	return nil
}

// addPath registers the path with the current style
func (c *sceneCursor) addPath(p mixdraw.Path) {
	if len(p) == 0 || c.inDefs {
		return
	}
	st := c.currentStyle()
	artist := mixfigure.NewPathArtist(p, st.Style)
	artist.Transform = st.transform
	artist.Raster = st.rasterized
	c.fig.Add(artist)
}

func rectF(c *sceneCursor, attrs []xml.Attr) error {
	var x, y, w, h, rx, ry float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			x, err = parseFloat(attr.Value)
		case "y":
			y, err = parseFloat(attr.Value)
		case "width":
			w, err = parseFloat(attr.Value)
		case "height":
			h, err = parseFloat(attr.Value)
		case "rx":
			rx, err = parseFloat(attr.Value)
		case "ry":
			ry, err = parseFloat(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	if w == 0 || h == 0 {
		return nil
	}
	// a single radius applies to both axis
	if rx == 0 {
		rx = ry
	} else if ry == 0 {
		ry = rx
	}
	var p mixdraw.Path
	p.AddRoundRect(x, y, x+w, y+h, rx, ry)
	c.addPath(p)
	return nil
}

func circleF(c *sceneCursor, attrs []xml.Attr) error {
	var cx, cy, rx, ry float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "cx":
			cx, err = parseFloat(attr.Value)
		case "cy":
			cy, err = parseFloat(attr.Value)
		case "r":
			rx, err = parseFloat(attr.Value)
			ry = rx
		case "rx":
			rx, err = parseFloat(attr.Value)
		case "ry":
			ry, err = parseFloat(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	if rx == 0 || ry == 0 { // not drawn, but not an error
		return nil
	}
	var p mixdraw.Path
	p.AddEllipse(cx, cy, rx, ry)
	c.addPath(p)
	return nil
}

func lineF(c *sceneCursor, attrs []xml.Attr) error {
	var x1, x2, y1, y2 float64
	var err error
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x1":
			x1, err = parseFloat(attr.Value)
		case "x2":
			x2, err = parseFloat(attr.Value)
		case "y1":
			y1, err = parseFloat(attr.Value)
		case "y2":
			y2, err = parseFloat(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	var p mixdraw.Path
	p.Start(x1, y1)
	p.Line(x2, y2)
	c.addPath(p)
	return nil
}

func readPoints(attrs []xml.Attr) ([]mixdraw.Point, error) {
	for _, attr := range attrs {
		if attr.Name.Local != "points" {
			continue
		}
		values, err := parseNumbers(attr.Value)
		if err != nil {
			return nil, err
		}
		if len(values)%2 != 0 {
			return nil, errors.New("polygon has odd number of points")
		}
		points := make([]mixdraw.Point, len(values)/2)
		for i := range points {
			points[i] = mixdraw.Point{X: values[2*i], Y: values[2*i+1]}
		}
		return points, nil
	}
	return nil, nil
}

func polylineF(c *sceneCursor, attrs []xml.Attr) error {
	points, err := readPoints(attrs)
	if err != nil {
		return err
	}
	if len(points) < 2 {
		return nil
	}
	var p mixdraw.Path
	p.Start(points[0].X, points[0].Y)
	for _, pt := range points[1:] {
		p.Line(pt.X, pt.Y)
	}
	c.addPath(p)
	return nil
}

func polygonF(c *sceneCursor, attrs []xml.Attr) error {
	points, err := readPoints(attrs)
	if err != nil {
		return err
	}
	var p mixdraw.Path
	p.AddPolygon(points)
	c.addPath(p)
	return nil
}

func pathF(c *sceneCursor, attrs []xml.Attr) error {
	for _, attr := range attrs {
		if attr.Name.Local != "d" {
			continue
		}
		p, err := compilePath(attr.Value)
		if err != nil {
			return err
		}
		c.addPath(p)
	}
	return nil
}

var defaultMeshColor = color.NRGBA{A: 0xff}

// meshF adds a mesh; its opacity is the fill opacity of the style
func meshF(c *sceneCursor, attrs []xml.Attr) error {
	var (
		x, y, w, h float64
		rows, cols int
		from, to   = defaultMeshColor, defaultMeshColor
		err        error
	)
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "x":
			x, err = parseFloat(attr.Value)
		case "y":
			y, err = parseFloat(attr.Value)
		case "width":
			w, err = parseFloat(attr.Value)
		case "height":
			h, err = parseFloat(attr.Value)
		case "rows":
			rows, err = strconv.Atoi(attr.Value)
		case "cols":
			cols, err = strconv.Atoi(attr.Value)
		case "from":
			from, err = parseColorValue(attr.Value)
		case "to":
			to, err = parseColorValue(attr.Value)
		}
		if err != nil {
			return err
		}
	}
	if rows < 0 || cols < 0 {
		return errParamMismatch
	}
	if w == 0 || h == 0 || rows == 0 || cols == 0 || c.inDefs {
		return nil
	}
	st := c.currentStyle()
	mesh := mixfigure.NewMesh(x, y, w, h, rows, cols, from, to)
	mesh.Opacity = st.FillOpacity
	mesh.Transform = st.transform
	mesh.Raster = st.rasterized
	c.fig.Add(mesh)
	return nil
}
