package mixscene

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benoitkugler/mixmode/mixdraw"
)

// pathCursor accumulates the segments of a path data attribute
type pathCursor struct {
	path                 mixdraw.Path
	current, start, ctrl mixdraw.Point
	lastCmd              byte
}

// argCount is the number of arguments expected by each command
var argCount = map[byte]int{
	'm': 2, 'l': 2, 'h': 1, 'v': 1,
	'c': 6, 's': 4, 'q': 4, 't': 2, 'a': 7, 'z': 0,
}

// compilePath parses the content of a `d` attribute.
// Arc flags must be separated from the other arguments.
func compilePath(d string) (mixdraw.Path, error) {
	var c pathCursor
	d = strings.TrimSpace(d)
	for len(d) > 0 {
		cmd := d[0]
		n, ok := argCount[byte(unicode.ToLower(rune(cmd)))]
		if !ok {
			return nil, fmt.Errorf("unsupported path command %q", cmd)
		}
		if len(c.path) == 0 && cmd != 'M' && cmd != 'm' {
			return nil, fmt.Errorf("path must start with a move, got %q", cmd)
		}
		end := strings.IndexFunc(d[1:], func(r rune) bool {
			return unicode.IsLetter(r) && r != 'e' && r != 'E'
		})
		args := d[1:]
		if end >= 0 {
			args, d = d[1:end+1], strings.TrimSpace(d[end+1:])
		} else {
			d = ""
		}
		points, err := parseNumbers(args)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			if len(points) != 0 {
				return nil, errParamMismatch
			}
			c.addSeg(cmd, nil)
			continue
		}
		if len(points) == 0 || len(points)%n != 0 {
			return nil, errParamMismatch
		}
		for i := 0; i < len(points); i += n {
			if err := c.addSeg(cmd, points[i:i+n]); err != nil {
				return nil, err
			}
			// extra pairs after a move are implicit lines
			if cmd == 'm' {
				cmd = 'l'
			} else if cmd == 'M' {
				cmd = 'L'
			}
		}
	}
	return c.path, nil
}

// abs returns the point (x, y), relative to the current point if rel is true
func (c *pathCursor) abs(rel bool, x, y float64) mixdraw.Point {
	if rel {
		return mixdraw.Point{X: c.current.X + x, Y: c.current.Y + y}
	}
	return mixdraw.Point{X: x, Y: y}
}

// reflect returns the reflection of the last control point, if the
// previous command was one of `kinds`.
func (c *pathCursor) reflect(kinds string) mixdraw.Point {
	if strings.IndexByte(kinds, c.lastCmd) < 0 {
		return c.current
	}
	return mixdraw.Point{X: 2*c.current.X - c.ctrl.X, Y: 2*c.current.Y - c.ctrl.Y}
}

func (c *pathCursor) addSeg(cmd byte, p []float64) error {
	rel := cmd >= 'a'
	lower := byte(unicode.ToLower(rune(cmd)))
	switch lower {
	case 'm':
		c.current = c.abs(rel, p[0], p[1])
		c.start = c.current
		c.path.Start(c.current.X, c.current.Y)
	case 'l':
		c.current = c.abs(rel, p[0], p[1])
		c.path.Line(c.current.X, c.current.Y)
	case 'h':
		if rel {
			c.current.X += p[0]
		} else {
			c.current.X = p[0]
		}
		c.path.Line(c.current.X, c.current.Y)
	case 'v':
		if rel {
			c.current.Y += p[0]
		} else {
			c.current.Y = p[0]
		}
		c.path.Line(c.current.X, c.current.Y)
	case 'c':
		b, ctrl, end := c.abs(rel, p[0], p[1]), c.abs(rel, p[2], p[3]), c.abs(rel, p[4], p[5])
		c.path.CubeBezier(b, ctrl, end)
		c.ctrl, c.current = ctrl, end
	case 's':
		b := c.reflect("cs")
		ctrl, end := c.abs(rel, p[0], p[1]), c.abs(rel, p[2], p[3])
		c.path.CubeBezier(b, ctrl, end)
		c.ctrl, c.current = ctrl, end
	case 'q':
		ctrl, end := c.abs(rel, p[0], p[1]), c.abs(rel, p[2], p[3])
		c.path.QuadBezier(ctrl, end)
		c.ctrl, c.current = ctrl, end
	case 't':
		ctrl := c.reflect("qt")
		end := c.abs(rel, p[0], p[1])
		c.path.QuadBezier(ctrl, end)
		c.ctrl, c.current = ctrl, end
	case 'a':
		if !isFlag(p[3]) || !isFlag(p[4]) {
			return fmt.Errorf("invalid arc flags %g %g", p[3], p[4])
		}
		end := c.abs(rel, p[5], p[6])
		c.path.ArcTo(c.current, p[0], p[1], p[2], p[3] == 1, p[4] == 1, end)
		c.current = end
	case 'z':
		if len(c.path) > 0 && c.lastCmd != 'z' {
			c.path.Stop(true)
		}
		c.current = c.start
	}
	c.lastCmd = lower
	return nil
}

func isFlag(f float64) bool { return f == 0 || f == 1 }
