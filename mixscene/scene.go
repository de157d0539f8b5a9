// Package mixscene reads figures described in a small XML format,
// close to SVG:
//
//	<figure width="4" height="3" dpi="150">
//	    <title>Heat map</title>
//	    <defs>
//	        <linearGradient id="fade" x2="0" y2="1">
//	            <stop offset="0" stop-color="white"/>
//	            <stop offset="1" stop-color="gray"/>
//	        </linearGradient>
//	    </defs>
//	    <rect width="4" height="3" fill="url(#fade)"/>
//	    <g stroke="black" stroke-width="0.5">
//	        <rect x="0.5" y="0.5" width="3" height="2" fill="none"/>
//	        <mesh x="0.5" y="0.5" width="3" height="2" rows="50" cols="80"
//	              from="navy" to="#ffcc00" rasterized="true"/>
//	    </g>
//	</figure>
//
// Coordinates are in inches, with the y axis going down. Line widths and
// dash lengths are in points (1/72 inch).
// Shapes inside defs are not drawn, and gradients must be defined
// before being referenced.
package mixscene

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/benoitkugler/mixmode/mixfigure"
	"github.com/benoitkugler/mixmode/mixmode"
	"golang.org/x/net/html/charset"
)

// ErrorMode is the strategy used for unsupported elements.
type ErrorMode uint8

const (
	// IgnoreErrorMode skips unsupported elements silently.
	IgnoreErrorMode ErrorMode = iota
	// WarnErrorMode skips unsupported elements, logging a warning.
	WarnErrorMode
	// StrictErrorMode aborts reading on unsupported elements.
	StrictErrorMode
)

var errParamMismatch = errors.New("param mismatch")

// sceneCursor is used while parsing scene files
type sceneCursor struct {
	fig        *mixfigure.Figure
	styleStack []sceneStyle
	errorMode  ErrorMode
	inTitle    bool

	grads  map[string]*mixdraw.Gradient
	grad   *mixdraw.Gradient // gradient being defined
	inDefs bool
}

// ReadScene reads a figure from the given io.Reader.
// errMode determines if the reader ignores, errors out, or logs a warning
// if it does not handle an element found in the scene.
func ReadScene(stream io.Reader, errMode ErrorMode) (*mixfigure.Figure, error) {
	cursor := &sceneCursor{
		styleStack: []sceneStyle{defaultStyle},
		errorMode:  errMode,
		grads:      make(map[string]*mixdraw.Gradient),
	}
	decoder := xml.NewDecoder(stream)
	decoder.CharsetReader = charset.NewReaderLabel
	for {
		t, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("mixscene: %w", err)
		}
		// Inspect the type of the XML token
		switch se := t.(type) {
		case xml.StartElement:
			if cursor.fig == nil && se.Name.Local != "figure" {
				return nil, fmt.Errorf("mixscene: expected a figure root element, got %s", se.Name.Local)
			}
			// Reads all recognized style attributes from the start element
			// and places it on top of the styleStack
			if err = cursor.pushStyle(se.Attr); err != nil {
				return nil, fmt.Errorf("mixscene: element %s: %w", se.Name.Local, err)
			}
			if err = cursor.readStartElement(se); err != nil {
				return nil, fmt.Errorf("mixscene: element %s: %w", se.Name.Local, err)
			}
		case xml.EndElement:
			// pop style
			cursor.styleStack = cursor.styleStack[:len(cursor.styleStack)-1]
			switch se.Name.Local {
			case "title":
				cursor.inTitle = false
			case "defs":
				cursor.inDefs = false
			case "linearGradient", "radialGradient":
				cursor.grad = nil
			}
		case xml.CharData:
			if cursor.inTitle {
				cursor.fig.Title += string(se)
			}
		}
	}
	if cursor.fig == nil {
		return nil, errors.New("mixscene: missing figure element")
	}
	return cursor.fig, nil
}

// ReadSceneFile reads a figure from the named file.
// See ReadScene for the meaning of errMode.
func ReadSceneFile(path string, errMode ErrorMode) (*mixfigure.Figure, error) {
	fin, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fin.Close()
	return ReadScene(fin, errMode)
}

func (c *sceneCursor) readStartElement(se xml.StartElement) error {
	df, ok := drawFuncs[se.Name.Local]
	if !ok {
		errStr := "cannot process scene element " + se.Name.Local
		switch c.errorMode {
		case StrictErrorMode:
			return errors.New(errStr)
		case WarnErrorMode:
			mixmode.Logger().Warn("mixscene: " + errStr)
		}
		return nil
	}
	return df(c, se.Attr)
}

func (c *sceneCursor) currentStyle() sceneStyle { return c.styleStack[len(c.styleStack)-1] }
