// Command mixrender renders a scene file to PDF. Artists marked
// as rasterized are drawn at the raster resolution and embedded
// as images.
package main

import (
	"flag"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/benoitkugler/mixmode/mixfigure"
	"github.com/benoitkugler/mixmode/mixmode"
	"github.com/benoitkugler/mixmode/mixscene"
)

func main() {
	var (
		input   = flag.String("in", "", "scene file (required)")
		output  = flag.String("out", "out.pdf", "output PDF file")
		dpi     = flag.Float64("dpi", 0, "raster resolution (defaults to the figure resolution)")
		tight   = flag.Bool("tight", false, "crop the page to the drawn artists")
		backend = flag.String("backend", "gofpdf", "PDF backend: gofpdf or contentstream")
		pngOut  = flag.String("png", "", "also rasterize the whole figure to this PNG file")
		verbose = flag.Bool("v", false, "log progress")
	)
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}
	errMode := mixscene.IgnoreErrorMode
	if *verbose {
		mixmode.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		errMode = mixscene.WarnErrorMode
	}

	pdfBackend, err := mixfigure.ParsePDFBackend(*backend)
	if err != nil {
		log.Fatal(err)
	}

	fig, err := mixscene.ReadSceneFile(*input, errMode)
	if err != nil {
		log.Fatalf("Failed to read scene: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	err = mixfigure.RenderPDF(fig, f, mixfigure.PDFOptions{Backend: pdfBackend, RasterDPI: *dpi, Tight: *tight})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatalf("Failed to render PDF: %v", err)
	}
	log.Printf("PDF saved to %s\n", *output)

	if *pngOut != "" {
		if err := savePNG(fig, *pngOut, *dpi); err != nil {
			log.Fatalf("Failed to render PNG: %v", err)
		}
		log.Printf("PNG saved to %s\n", *pngOut)
	}
}

func savePNG(fig *mixfigure.Figure, path string, dpi float64) error {
	if dpi <= 0 {
		dpi = fig.DPI()
	}
	img, err := mixfigure.RenderImage(fig, dpi)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
