package mixmode

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/math/fixed"
)

type document struct {
	dpi     float64
	history []float64
}

func (d *document) DPI() float64 { return d.dpi }

func (d *document) SetDPI(dpi float64) {
	d.dpi = dpi
	d.history = append(d.history, dpi)
}

type placedImage struct {
	X, Y float64
	Img  *image.NRGBA
}

// nopDrawer accepts and ignores every path command
type nopDrawer struct{ drawn *int }

func (nopDrawer) Clear()                                 {}
func (nopDrawer) Start(fixed.Point26_6)                  {}
func (nopDrawer) Line(fixed.Point26_6)                   {}
func (nopDrawer) QuadBezier(_, _ fixed.Point26_6)        {}
func (nopDrawer) CubeBezier(_, _, _ fixed.Point26_6)     {}
func (nopDrawer) Stop(bool)                              {}
func (d nopDrawer) Draw(mixdraw.Pattern, float64)        { *d.drawn++ }
func (nopDrawer) SetWinding(bool)                        {}
func (nopDrawer) SetStrokeOptions(mixdraw.StrokeOptions) {}

// vectorRenderer records the images it receives
type vectorRenderer struct {
	images []placedImage
	gcs    int
	paths  int
}

func (v *vectorRenderer) SetupDrawers(willFill, willStroke bool) (mixdraw.Filler, mixdraw.Stroker) {
	d := nopDrawer{drawn: &v.paths}
	return d, d
}

func (v *vectorRenderer) NewGC() *mixdraw.GraphicsContext {
	v.gcs++
	return mixdraw.NewGraphicsContext()
}

func (v *vectorRenderer) DrawImage(gc *mixdraw.GraphicsContext, x, y float64, img image.Image) {
	v.images = append(v.images, placedImage{X: x, Y: y, Img: img.(*image.NRGBA)})
}

// rasterRenderer returns a fixed region when flushed
type rasterRenderer struct {
	vectorRenderer
	width, height, dpi float64

	region mixdraw.Region
	buf    []byte
}

func (r *rasterRenderer) FlushMinimalRegion() ([]byte, mixdraw.Region) { return r.buf, r.region }

type rasterFactory struct {
	created []*rasterRenderer
	region  mixdraw.Region
	buf     []byte
}

func (f *rasterFactory) new(width, height, dpi float64) RasterRenderer {
	r := &rasterRenderer{width: width, height: height, dpi: dpi, region: f.region, buf: f.buf}
	f.created = append(f.created, r)
	return r
}

func regionBuffer(w, h int) []byte {
	buf := make([]byte, 4*w*h)
	for row := 0; row < h; row++ {
		for i := 0; i < 4*w; i++ {
			buf[row*4*w+i] = byte(row)
		}
	}
	return buf
}

func newTestCompositor(region mixdraw.Region) (*Compositor, *document, *vectorRenderer, *rasterFactory) {
	doc := &document{dpi: 72}
	vector := &vectorRenderer{}
	factory := &rasterFactory{region: region, buf: regionBuffer(region.Width, region.Height)}
	c := New(doc, 10, 10, 100, vector, WithRasterFactory(factory.new))
	return c, doc, vector, factory
}

func TestActiveRenderer(t *testing.T) {
	c, _, vector, factory := newTestCompositor(mixdraw.Region{})
	if c.Current() != vector {
		t.Fatal("vector renderer should be active before rasterizing")
	}
	c.StartRasterizing()
	if len(factory.created) != 1 || c.Current() != factory.created[0] {
		t.Fatal("raster renderer should be active while rasterizing")
	}
	if !c.Rasterizing() || c.Depth() != 1 {
		t.Fatalf("unexpected depth %d", c.Depth())
	}
	c.StopRasterizing()
	if c.Current() != vector {
		t.Fatal("vector renderer should be active after rasterizing")
	}
	if c.Rasterizing() {
		t.Fatal("unexpected raster mode")
	}
	if c.raster != nil {
		t.Fatal("raster renderer should be released")
	}
}

func TestRasterCanvasSize(t *testing.T) {
	c, _, _, factory := newTestCompositor(mixdraw.Region{})
	c.StartRasterizing()
	c.StopRasterizing()
	r := factory.created[0]
	if r.width != 1000 || r.height != 1000 || r.dpi != 100 {
		t.Errorf("unexpected raster canvas %vx%v at %v dpi", r.width, r.height, r.dpi)
	}
}

func TestProxyFollowsMode(t *testing.T) {
	c, _, vector, factory := newTestCompositor(mixdraw.Region{})

	var p mixdraw.Path
	p.AddRect(0, 0, 1, 1, 0)
	mixdraw.DrawPath(c, p, mixdraw.DefaultStyle, 1, mixdraw.Identity)

	c.StartRasterizing()
	mixdraw.DrawPath(c, p, mixdraw.DefaultStyle, 1, mixdraw.Identity)
	mixdraw.DrawPath(c, p, mixdraw.DefaultStyle, 1, mixdraw.Identity)
	raster := factory.created[0]
	c.StopRasterizing()

	mixdraw.DrawPath(c, p, mixdraw.DefaultStyle, 1, mixdraw.Identity)

	if vector.paths != 2 {
		t.Errorf("expected 2 vector paths, got %d", vector.paths)
	}
	if raster.paths != 2 {
		t.Errorf("expected 2 raster paths, got %d", raster.paths)
	}
}

func TestNestedSessions(t *testing.T) {
	region := mixdraw.Region{Left: 1, Bottom: 2, Width: 3, Height: 4}
	c, _, vector, factory := newTestCompositor(region)

	c.StartRasterizing()
	c.StartRasterizing()
	if c.Depth() != 2 {
		t.Fatalf("unexpected depth %d", c.Depth())
	}
	c.StopRasterizing()
	if len(vector.images) != 0 {
		t.Fatal("inner StopRasterizing must not embed anything")
	}
	if !c.Rasterizing() || c.Current() != factory.created[0] {
		t.Fatal("inner StopRasterizing must keep the raster renderer")
	}
	c.StopRasterizing()

	if len(factory.created) != 1 {
		t.Errorf("expected one raster renderer, got %d", len(factory.created))
	}
	if len(vector.images) != 1 {
		t.Errorf("expected one embedded image, got %d", len(vector.images))
	}
}

func TestSessionsAreNotReused(t *testing.T) {
	c, _, vector, factory := newTestCompositor(mixdraw.Region{Width: 1, Height: 1})
	for i := 0; i < 3; i++ {
		c.StartRasterizing()
		c.StopRasterizing()
	}
	if len(factory.created) != 3 {
		t.Errorf("expected a fresh raster renderer per session, got %d", len(factory.created))
	}
	if len(vector.images) != 3 {
		t.Errorf("expected one image per session, got %d", len(vector.images))
	}
}

func TestDocumentResolution(t *testing.T) {
	c, doc, _, _ := newTestCompositor(mixdraw.Region{Width: 1, Height: 1})
	check := func(want float64) {
		t.Helper()
		if doc.dpi != want {
			t.Errorf("at depth %d, expected document dpi %v, got %v", c.Depth(), want, doc.dpi)
		}
	}
	check(72)
	c.StartRasterizing()
	check(100)
	c.StartRasterizing()
	check(100)
	c.StopRasterizing()
	check(100)
	c.StopRasterizing()
	check(72)

	if c.DocumentDPI() != 72 || c.DPI() != 100 {
		t.Errorf("unexpected resolutions %v %v", c.DocumentDPI(), c.DPI())
	}
}

func TestBlankSession(t *testing.T) {
	c, _, vector, _ := newTestCompositor(mixdraw.Region{})
	c.StartRasterizing()
	c.StopRasterizing()
	if len(vector.images) != 0 {
		t.Errorf("blank session must not embed images, got %d", len(vector.images))
	}
	if vector.gcs != 0 {
		t.Errorf("blank session must not create graphics contexts")
	}
}

func TestDegenerateRegion(t *testing.T) {
	for _, region := range []mixdraw.Region{
		{Left: 5, Bottom: 5, Width: 0, Height: 3},
		{Left: 5, Bottom: 5, Width: 3, Height: 0},
	} {
		c, _, vector, _ := newTestCompositor(region)
		c.StartRasterizing()
		c.StopRasterizing()
		if len(vector.images) != 0 {
			t.Errorf("region %s must not be embedded", region)
		}
	}
}

func TestPlacement(t *testing.T) {
	region := mixdraw.Region{Left: 50, Bottom: 20, Width: 30, Height: 40}
	c, _, vector, _ := newTestCompositor(region)
	c.StartRasterizing()
	c.StopRasterizing()

	if len(vector.images) != 1 {
		t.Fatalf("expected one image, got %d", len(vector.images))
	}
	got := vector.images[0]
	if got.X != 36.0 || got.Y != 676.8 {
		t.Errorf("expected image at (36, 676.8), got (%v, %v)", got.X, got.Y)
	}
	if size := got.Img.Bounds().Size(); size != image.Pt(30, 40) {
		t.Errorf("unexpected image size %v", size)
	}
	if vector.gcs != 1 {
		t.Errorf("expected a fresh graphics context, got %d", vector.gcs)
	}
}

func TestRowsFlipped(t *testing.T) {
	region := mixdraw.Region{Width: 2, Height: 3}
	c, _, vector, _ := newTestCompositor(region)
	c.StartRasterizing()
	c.StopRasterizing()

	img := vector.images[0].Img
	// each raw scanline is filled with its index
	for row := 0; row < 3; row++ {
		want := color.NRGBA{R: byte(2 - row), G: byte(2 - row), B: byte(2 - row), A: byte(2 - row)}
		if got := img.NRGBAAt(1, row); got != want {
			t.Errorf("image row %d: expected %v, got %v", row, want, got)
		}
	}
}

func TestUnbalancedStop(t *testing.T) {
	c, _, _, _ := newTestCompositor(mixdraw.Region{})
	defer func() {
		if recover() == nil {
			t.Error("StopRasterizing without StartRasterizing must panic")
		}
	}()
	c.StopRasterizing()
}

func TestUnbalancedStopAfterSession(t *testing.T) {
	c, _, _, _ := newTestCompositor(mixdraw.Region{})
	c.StartRasterizing()
	c.StopRasterizing()
	defer func() {
		if recover() == nil {
			t.Error("extra StopRasterizing must panic")
		}
		if c.Depth() != 0 {
			t.Errorf("depth must not go negative, got %d", c.Depth())
		}
	}()
	c.StopRasterizing()
}

func TestInvalidConstruction(t *testing.T) {
	doc := &document{dpi: 72}
	for name, build := range map[string]func(){
		"nil document": func() { New(nil, 1, 1, 72, &vectorRenderer{}) },
		"nil vector":   func() { New(doc, 1, 1, 72, nil) },
		"zero dpi":     func() { New(doc, 1, 1, 0, &vectorRenderer{}) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%s: expected panic", name)
				}
			}()
			build()
		}()
	}
}

func TestRasterizeGuard(t *testing.T) {
	c, doc, vector, _ := newTestCompositor(mixdraw.Region{Width: 1, Height: 1})
	errDraw := errors.New("draw failed")
	err := c.Rasterize(func() error {
		if !c.Rasterizing() {
			t.Error("expected raster mode inside Rasterize")
		}
		return errDraw
	})
	if !errors.Is(err, errDraw) {
		t.Errorf("expected the draw error, got %v", err)
	}
	if c.Rasterizing() || doc.dpi != 72 {
		t.Errorf("session not closed: depth %d, dpi %v", c.Depth(), doc.dpi)
	}
	if len(vector.images) != 1 {
		t.Errorf("expected partial content to be embedded, got %d images", len(vector.images))
	}
}

func TestRasterizeGuardPanic(t *testing.T) {
	c, doc, _, _ := newTestCompositor(mixdraw.Region{})
	func() {
		defer func() { recover() }()
		_ = c.Rasterize(func() error { panic("boom") })
	}()
	if c.Rasterizing() || doc.dpi != 72 {
		t.Errorf("session not closed after panic: depth %d, dpi %v", c.Depth(), doc.dpi)
	}
}

func TestResolutionRestoredOnFactoryFailure(t *testing.T) {
	doc := &document{dpi: 72}
	c := New(doc, 1, 1, 300, &vectorRenderer{}, WithRasterFactory(func(w, h, dpi float64) RasterRenderer {
		panic("out of memory")
	}))
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the factory failure to propagate")
			}
		}()
		c.StartRasterizing()
	}()
	if doc.dpi != 72 || c.Depth() != 0 {
		t.Errorf("unexpected state after failure: depth %d, dpi %v", c.Depth(), doc.dpi)
	}
	if c.Current() != c.Vector() {
		t.Error("vector renderer should stay active")
	}
}

type flushPanicker struct{ rasterRenderer }

func (flushPanicker) FlushMinimalRegion() ([]byte, mixdraw.Region) { panic("flush failed") }

func TestResolutionRestoredOnFlushFailure(t *testing.T) {
	doc := &document{dpi: 72}
	c := New(doc, 1, 1, 300, &vectorRenderer{}, WithRasterFactory(func(w, h, dpi float64) RasterRenderer {
		return &flushPanicker{}
	}))
	c.StartRasterizing()
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the flush failure to propagate")
			}
		}()
		c.StopRasterizing()
	}()
	if doc.dpi != 72 {
		t.Errorf("document resolution not restored: %v", doc.dpi)
	}
	if c.Current() != c.Vector() {
		t.Error("vector renderer should be active again")
	}
}

type hookCall struct {
	Kind        string
	Token       int
	DocDPI      float64
	RestoredDPI float64
}

// hooks records its calls; the token is a counter
type hooks struct{ calls []hookCall }

func (h *hooks) PreRasterize(doc Document, token any) any {
	h.calls = append(h.calls, hookCall{Kind: "pre", Token: token.(int), DocDPI: doc.DPI()})
	return token.(int) + 1
}

func (h *hooks) PostRasterize(doc Document, token any, restoredDPI float64) any {
	h.calls = append(h.calls, hookCall{Kind: "post", Token: token.(int), DocDPI: doc.DPI(), RestoredDPI: restoredDPI})
	return token.(int) + 1
}

func TestBBoxHooks(t *testing.T) {
	doc := &document{dpi: 72}
	h := &hooks{}
	factory := &rasterFactory{}
	c := New(doc, 1, 1, 200, &vectorRenderer{}, WithRasterFactory(factory.new), WithBBoxRestore(h, 0))

	c.StartRasterizing()
	c.StartRasterizing()
	c.StopRasterizing()
	c.StopRasterizing()

	want := []hookCall{
		{Kind: "pre", Token: 0, DocDPI: 200},
		{Kind: "pre", Token: 1, DocDPI: 200},
		{Kind: "post", Token: 2, DocDPI: 200, RestoredDPI: 0},
		{Kind: "post", Token: 3, DocDPI: 72, RestoredDPI: 72},
	}
	if diff := cmp.Diff(want, h.calls); diff != "" {
		t.Errorf("unexpected hook calls (-want +got):\n%s", diff)
	}
	if c.BBoxRestore() != 4 {
		t.Errorf("unexpected final token %v", c.BBoxRestore())
	}
}

func TestBBoxHooksWithoutToken(t *testing.T) {
	h := &hooks{}
	c := New(&document{dpi: 72}, 1, 1, 200, &vectorRenderer{},
		WithRasterFactory((&rasterFactory{}).new), WithBBoxRestore(h, nil))
	c.StartRasterizing()
	c.StopRasterizing()
	if len(h.calls) != 0 {
		t.Errorf("hooks must not run without a token, got %d calls", len(h.calls))
	}
}

func TestDefaultRasterBackend(t *testing.T) {
	doc := &document{dpi: 72}
	vector := &vectorRenderer{}
	c := New(doc, 2, 1, 100, vector)

	err := c.Rasterize(func() error {
		var p mixdraw.Path
		// device units are raster pixels while rasterizing
		p.AddRect(20, 10, 60, 30, 0)
		mixdraw.DrawPath(c, p, mixdraw.DefaultStyle, 1, mixdraw.Identity)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(vector.images) != 1 {
		t.Fatalf("expected one image, got %d", len(vector.images))
	}
	im := vector.images[0]
	// the rectangle spans 40x20 pixels, allowing for anti-aliasing
	size := im.Img.Bounds().Size()
	if size.X < 40 || size.X > 42 || size.Y < 20 || size.Y > 22 {
		t.Errorf("unexpected image size %v", size)
	}
	if im.X < 19*0.72 || im.X > 20*0.72+1e-9 || im.Y < 9*0.72 || im.Y > 10*0.72+1e-9 {
		t.Errorf("unexpected image position (%v, %v)", im.X, im.Y)
	}
	if a := im.Img.NRGBAAt(size.X/2, size.Y/2).A; a != 255 {
		t.Errorf("expected opaque center pixel, got alpha %d", a)
	}
}
