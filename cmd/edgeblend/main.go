// Command edgeblend applies the edge-aware adaptive filter to an image file.
//
// Usage:
//
//	edgeblend [-in test.jpg] [-out testout.jpg] [-backend wgpu|software] [-v]
//
// An -in of "-" reads the image from standard input. The output format
// follows the extension of -out (png, jpg, bmp, tif).
// Exit status is 1 on any failure, including an unavailable backend.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/gogpu/edgeblend"
	_ "github.com/gogpu/edgeblend/backend/wgpu"
	"github.com/gogpu/edgeblend/internal/imageio"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "edgeblend: %v\n", err)
		os.Exit(1)
	}
}

// config holds the parsed command line.
type config struct {
	in, out    string
	backend    string
	iterations int
	group      int
	tile       int
	workers    int
	maxPixels  int
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var c config
	fs := flag.NewFlagSet("edgeblend", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&c.in, "in", "test.jpg", "input image, - for stdin")
	fs.StringVar(&c.out, "out", "testout.jpg", "output image (format from extension)")
	fs.StringVar(&c.backend, "backend", "", "compute backend (wgpu, software); default: $"+edgeblend.EnvBackend+" or best available")
	fs.IntVar(&c.iterations, "iterations", 0, "smoothing passes (0 = default 8)")
	fs.IntVar(&c.group, "group", 0, "reduction worker-group size, power of two (0 = default 1024)")
	fs.IntVar(&c.tile, "tile", 0, "tile side for CPU per-pixel stages (0 = default 32)")
	fs.IntVar(&c.workers, "workers", 0, "CPU workers (0 = GOMAXPROCS)")
	fs.IntVar(&c.maxPixels, "max-pixels", 0, "reject larger images (0 = unlimited)")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if fs.NArg() > 0 {
		return c, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return c, nil
}

func (c config) options() []edgeblend.Option {
	opts := []edgeblend.Option{
		edgeblend.WithIterations(c.iterations),
		edgeblend.WithGroupSize(c.group),
		edgeblend.WithTileSize(c.tile),
		edgeblend.WithWorkers(c.workers),
		edgeblend.WithMaxPixels(c.maxPixels),
	}
	if c.backend != "" {
		opts = append(opts, edgeblend.WithBackend(c.backend))
	}
	return opts
}

// newLogger logs text to terminals and JSON otherwise.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return slog.New(slog.NewTextHandler(w, hopts))
	}
	return slog.New(slog.NewJSONHandler(w, hopts))
}

// load decodes the input image from path, or from stdin when path is "-".
func load(path string, stdin io.Reader) (*imageio.Channels, string, error) {
	if path != "-" {
		return imageio.Load(path)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, "", fmt.Errorf("read stdin: %w", err)
	}
	return imageio.LoadBytes(data)
}

func run(args []string, stdin io.Reader, stderr io.Writer) error {
	c, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if _, err := imageio.FormatFromPath(c.out); err != nil {
		return err
	}

	log := newLogger(stderr, c.verbose)
	edgeblend.SetLogger(log)
	defer edgeblend.SetLogger(nil)

	img, format, err := load(c.in, stdin)
	if err != nil {
		return err
	}
	log.Info("loaded image", "path", c.in, "format", format, "width", img.Width, "height", img.Height)

	p, err := edgeblend.NewPipeline(c.options()...)
	if err != nil {
		return err
	}
	defer p.Close()

	stats, err := p.Run(edgeblend.Planes(img.Planes), img.Height, img.Width)
	if err != nil {
		return err
	}
	log.Debug("filter stats", "stats", stats)

	if err := imageio.Save(c.out, img.Image()); err != nil {
		return err
	}
	log.Info("saved image", "path", c.out, "backend", stats.Backend, "elapsed", stats.Total)
	return nil
}
