package mixscene

import (
	"bytes"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benoitkugler/mixmode/mixdraw"
	"github.com/benoitkugler/mixmode/mixfigure"
	"github.com/benoitkugler/mixmode/mixmode"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const heatmap = `<?xml version="1.0" encoding="UTF-8"?>
<figure width="4" height="3" dpi="150">
	<title>Heat map</title>
	<g stroke="black" stroke-width="0.5">
		<rect x="0.5" y="0.5" width="3" height="2" fill="none"/>
		<mesh x="0.5" y="0.5" width="3" height="2" rows="50" cols="80"
			from="navy" to="#ffcc00" rasterized="true"/>
	</g>
	<circle cx="2" cy="1.5" r="0.25" style="fill: rgb(255, 0, 0); opacity: 0.5"/>
</figure>`

func TestReadScene(t *testing.T) {
	fig, err := ReadScene(strings.NewReader(heatmap), StrictErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := fig.Size(); w != 4 || h != 3 || fig.DPI() != 150 {
		t.Errorf("unexpected figure %vx%v at %v dpi", w, h, fig.DPI())
	}
	if fig.Title != "Heat map" {
		t.Errorf("unexpected title %q", fig.Title)
	}
	artists := fig.Artists()
	if len(artists) != 3 {
		t.Fatalf("expected 3 artists, got %d", len(artists))
	}

	frame := artists[0].(*mixfigure.PathArtist)
	if frame.Style.FillerColor != nil {
		t.Errorf("expected no fill, got %v", frame.Style.FillerColor)
	}
	if frame.Style.LinerColor != mixdraw.NewPlainColor(0, 0, 0, 255) {
		t.Errorf("unexpected stroke %v", frame.Style.LinerColor)
	}
	if math.Abs(frame.Style.LineWidth-0.5/72) > 1e-12 {
		t.Errorf("unexpected line width %v", frame.Style.LineWidth)
	}
	if frame.Rasterized() {
		t.Error("frame should not be rasterized")
	}

	mesh := artists[1].(*mixfigure.Mesh)
	if !mesh.Rasterized() || mesh.Rows != 50 || mesh.Cols != 80 {
		t.Errorf("unexpected mesh %+v", mesh)
	}
	if mesh.From != (color.NRGBA{B: 0x80, A: 0xff}) || mesh.To != (color.NRGBA{R: 0xff, G: 0xcc, A: 0xff}) {
		t.Errorf("unexpected mesh colors %v %v", mesh.From, mesh.To)
	}

	dot := artists[2].(*mixfigure.PathArtist)
	if dot.Style.FillerColor != mixdraw.NewPlainColor(255, 0, 0, 255) {
		t.Errorf("unexpected fill %v", dot.Style.FillerColor)
	}
	if dot.Style.FillOpacity != 0.5 || dot.Style.LineOpacity != 0.5 {
		t.Errorf("unexpected opacities %v %v", dot.Style.FillOpacity, dot.Style.LineOpacity)
	}
	if dot.Style.LinerColor != nil {
		t.Error("style of a closed group should not leak")
	}
	want := mixdraw.Bounds{X: 1.75, Y: 1.25, W: 0.5, H: 0.5}
	if diff := cmp.Diff(want, dot.Extents(), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("unexpected circle extents (-want +got):\n%s", diff)
	}
}

func TestTransformAttribute(t *testing.T) {
	src := `<figure width="2" height="2">
		<g transform="translate(1, 0.5)">
			<rect x="0" y="0" width="0.5" height="0.5" transform="scale(2)"/>
		</g>
	</figure>`
	fig, err := ReadScene(strings.NewReader(src), StrictErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	if fig.DPI() != 72 {
		t.Errorf("expected default resolution, got %v", fig.DPI())
	}
	got := fig.Artists()[0].Extents()
	want := mixdraw.Bounds{X: 1, Y: 0.5, W: 1, H: 1}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("unexpected extents (-want +got):\n%s", diff)
	}
}

func TestParseTransform(t *testing.T) {
	for _, test := range []struct {
		in   string
		want mixdraw.Matrix2D
	}{
		{"translate(2)", mixdraw.Matrix2D{A: 1, D: 1, E: 2}},
		{"scale(2, 3)", mixdraw.Matrix2D{A: 2, D: 3}},
		{"matrix(1 2 3 4 5 6)", mixdraw.Matrix2D{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6}},
		{"rotate(90)", mixdraw.Matrix2D{B: 1, C: -1}},
		{"translate(1,1) scale(2)", mixdraw.Matrix2D{A: 2, D: 2, E: 1, F: 1}},
	} {
		got, err := parseTransform(mixdraw.Identity, test.in)
		if err != nil {
			t.Errorf("%s: %s", test.in, err)
			continue
		}
		if diff := cmp.Diff(test.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("%s: unexpected matrix (-want +got):\n%s", test.in, diff)
		}
	}
	for _, bad := range []string{"translate(1, 2, 3)", "skew(3)", "rotate", "scale(a)"} {
		if _, err := parseTransform(mixdraw.Identity, bad); err == nil {
			t.Errorf("%s: expected an error", bad)
		}
	}
}

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		in   string
		want mixdraw.Pattern
	}{
		{"none", nil},
		{"#f80", mixdraw.NewPlainColor(0xff, 0x88, 0x00, 0xff)},
		{"#102030", mixdraw.NewPlainColor(0x10, 0x20, 0x30, 0xff)},
		{"rgb(1, 2, 3)", mixdraw.NewPlainColor(1, 2, 3, 0xff)},
		{"RoyalBlue", mixdraw.NewPlainColor(0x41, 0x69, 0xe1, 0xff)},
	} {
		got, err := parseColor(test.in)
		if err != nil {
			t.Errorf("%s: %s", test.in, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: expected %v, got %v", test.in, test.want, got)
		}
	}
	for _, bad := range []string{"#12", "#zzzzzz", "rgb(1, 2)", "rgb(1, 2, 300)", "notacolor"} {
		if _, err := parseColor(bad); err == nil {
			t.Errorf("%s: expected an error", bad)
		}
	}
}

func TestStrokeAttributes(t *testing.T) {
	src := `<figure width="1" height="1">
		<polyline points="0 0, 1 1, 0 1" fill="none" stroke="red"
			stroke-dasharray="7.2, 3.6" stroke-dashoffset="72" stroke-linecap="round"
			stroke-linejoin="miter" stroke-miterlimit="10" fill-rule="evenodd"/>
	</figure>`
	fig, err := ReadScene(strings.NewReader(src), StrictErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	style := fig.Artists()[0].(*mixfigure.PathArtist).Style
	if diff := cmp.Diff([]float64{0.1, 0.05}, style.Dash.Dash, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("unexpected dashes (-want +got):\n%s", diff)
	}
	if style.Dash.DashOffset != 1 {
		t.Errorf("unexpected dash offset %v", style.Dash.DashOffset)
	}
	if style.Join.TrailLineCap != mixdraw.RoundCap || style.Join.LineJoin != mixdraw.Miter {
		t.Errorf("unexpected join options %+v", style.Join)
	}
	if style.Join.MiterLimit != 640 {
		t.Errorf("unexpected miter limit %v", style.Join.MiterLimit)
	}
	if style.UseNonZeroWinding {
		t.Error("expected even-odd rule")
	}
}

func TestErrorModes(t *testing.T) {
	src := `<figure width="1" height="1"><blob/><rect width="1" height="1"/></figure>`

	if _, err := ReadScene(strings.NewReader(src), StrictErrorMode); err == nil {
		t.Error("expected an error in strict mode")
	}

	fig, err := ReadScene(strings.NewReader(src), IgnoreErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	if len(fig.Artists()) != 1 {
		t.Errorf("expected the supported element, got %d artists", len(fig.Artists()))
	}

	var logs bytes.Buffer
	mixmode.SetLogger(slog.New(slog.NewTextHandler(&logs, nil)))
	defer mixmode.SetLogger(nil)
	if _, err = ReadScene(strings.NewReader(src), WarnErrorMode); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "blob") {
		t.Errorf("expected a warning about the unsupported element, got %q", logs.String())
	}
}

func TestInvalidScenes(t *testing.T) {
	for _, src := range []string{
		``,
		`<rect width="1" height="1"/>`,
		`<figure width="0" height="1"/>`,
		`<figure width="1" height="1"><figure width="1" height="1"/></figure>`,
		`<figure width="1" height="1"><rect width="x" height="1"/></figure>`,
		`<figure width="1" height="1"><polygon points="0 0 1"/></figure>`,
		`<figure width="1" height="1"><mesh width="1" height="1" rows="-2" cols="2"/></figure>`,
		`<figure width="1" height="1"><rect width="1" height="1" fill="#1234"/></figure>`,
		`<figure width="1" height="1"><rect width="1" height="1" rasterized="maybe"/></figure>`,
		`<figure width="1" height="1">`,
	} {
		if _, err := ReadScene(strings.NewReader(src), StrictErrorMode); err == nil {
			t.Errorf("%q: expected an error", src)
		}
	}
}

func TestCharset(t *testing.T) {
	// "Schéma" in latin-1
	src := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><figure width=\"1\" height=\"1\"><title>Sch\xe9ma</title></figure>")
	fig, err := ReadScene(bytes.NewReader(src), StrictErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	if fig.Title != "Schéma" {
		t.Errorf("unexpected title %q", fig.Title)
	}
}

func TestReadSceneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.xml")
	if err := os.WriteFile(path, []byte(heatmap), 0o644); err != nil {
		t.Fatal(err)
	}
	fig, err := ReadSceneFile(path, WarnErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	if len(fig.Artists()) != 3 {
		t.Errorf("unexpected artists %d", len(fig.Artists()))
	}
	if _, err = ReadSceneFile(filepath.Join(t.TempDir(), "missing.xml"), WarnErrorMode); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestRenderScene(t *testing.T) {
	fig, err := ReadScene(strings.NewReader(heatmap), StrictErrorMode)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err = mixfigure.RenderPDF(fig, &buf, mixfigure.PDFOptions{RasterDPI: 50}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "/Subtype /Image") {
		t.Error("expected the rasterized mesh to be embedded")
	}
}
