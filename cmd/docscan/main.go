package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan/internal/config"
	"github.com/ironsheep/docscan/internal/geom"
	"github.com/ironsheep/docscan/internal/httpapi"
	docimg "github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/logging"
	"github.com/ironsheep/docscan/internal/rectify"
	"github.com/ironsheep/docscan/internal/scanner"
	"github.com/ironsheep/docscan/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const usage = `docscan - document boundary detection and perspective correction

Usage:
  docscan detect  [flags] IMAGE...        print detected corners as JSON
  docscan rectify [flags] -in IMAGE       write the flattened document
  docscan batch   [flags] IMAGE...        detect and rectify many files
  docscan serve   [flags]                 JSON-RPC tool server on stdin/stdout
  docscan http    [flags]                 HTTP API

Options:
  --version, -v    Print version information
  --help, -h       Print this help message

Run "docscan <command> -h" for the flags of a command.

Environment variables:
  DOCSCAN_LOG_LEVEL=debug    Override the configured log level
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("docscan %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		fmt.Print(usage)
		return
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil && !errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "docscan: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	switch cmd {
	case "detect":
		return runDetect(args)
	case "rectify":
		return runRectify(args)
	case "batch":
		return runBatch(args)
	case "serve":
		return runServe(args)
	case "http":
		return runHTTP(args)
	default:
		return fmt.Errorf("unknown command %q (see docscan --help)", cmd)
	}
}

// commonFlags are shared by every command. Detection flags override the
// configuration file only when given on the command line.
type commonFlags struct {
	fs         *flag.FlagSet
	configPath string
	logLevel   string

	low, high, maxSize       int
	minArea, maxCos, epsilon float64
}

func newFlagSet(name string) *commonFlags {
	c := &commonFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	c.fs.StringVar(&c.configPath, "config", "", "configuration file (default "+config.GetConfigPath()+" when present)")
	c.fs.StringVar(&c.logLevel, "log-level", "", "log level: debug|info|warn|error")
	c.fs.IntVar(&c.low, "low", 0, "Canny low hysteresis threshold")
	c.fs.IntVar(&c.high, "high", 0, "Canny high hysteresis threshold")
	c.fs.Float64Var(&c.minArea, "min-area", 0, "minimum document area in analysed pixels")
	c.fs.Float64Var(&c.maxCos, "max-cosine", 0, "largest |cos| accepted at a document corner")
	c.fs.Float64Var(&c.epsilon, "epsilon", 0, "polygon approximation tolerance as a fraction of the perimeter")
	c.fs.IntVar(&c.maxSize, "max-size", 0, "longest side of the analysis copy, 0 analyses at full size")
	return c
}

// load reads the configuration, applies explicit flags and builds the logger.
func (c *commonFlags) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, nil, err
	}

	c.fs.Visit(func(f *flag.Flag) {
		d := &cfg.Detection
		switch f.Name {
		case "low":
			d.LowThreshold = c.low
		case "high":
			d.HighThreshold = c.high
		case "min-area":
			d.MinArea = c.minArea
		case "max-cosine":
			d.MaxCosine = c.maxCos
		case "epsilon":
			d.ApproxEpsilon = c.epsilon
		case "max-size":
			d.AnalysisMaxSize = c.maxSize
		case "log-level":
			cfg.Log.Level = c.logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	path = config.GetConfigPath()
	if _, err := os.Stat(path); err == nil {
		return config.LoadFromFile(path)
	}
	return config.Default(), nil
}

func runDetect(args []string) error {
	c := newFlagSet("detect")
	debugDir := c.fs.String("debug", "", "write an overlay of the detected corners to this directory")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.fs.NArg() == 0 {
		return errors.New("detect: at least one image is required")
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}

	// Misses are reported, never replaced by the whole image.
	opts := cfg.Detection
	opts.SelectAllOnError = false
	sc, err := scanner.New(opts, logger)
	if err != nil {
		return err
	}

	type detection struct {
		Input   string       `json:"input"`
		Found   bool         `json:"found"`
		Corners []geom.Point `json:"corners"`
		Overlay string       `json:"overlay,omitempty"`
		Error   string       `json:"error,omitempty"`
	}

	var out []detection
	failed := 0
	for _, path := range c.fs.Args() {
		d := detection{Input: path, Corners: []geom.Point{}}
		res, err := scanFile(sc, path)
		switch {
		case errors.Is(err, scanner.ErrNoDocument):
		case err != nil:
			d.Error = err.Error()
			failed++
		default:
			d.Found = true
			d.Corners = res.Corners.Points()
			if *debugDir != "" {
				d.Overlay, err = writeOverlay(res, path, *debugDir)
				if err != nil {
					logger.WithError(err).WithField("input", path).Warn("Failed to write overlay")
				}
			}
		}
		out = append(out, d)
	}

	if err := printJSON(out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(out))
	}
	return nil
}

func scanFile(sc *scanner.Scanner, path string) (*scanner.ScanResult, error) {
	img, err := docimg.Open(path)
	if err != nil {
		return nil, err
	}
	return sc.Scan(img)
}

func writeOverlay(res *scanner.ScanResult, input, dir string) (string, error) {
	img, err := docimg.DrawQuadrilateral(res.Image, res.Corners, docimg.DefaultOverlayStyle())
	if err != nil {
		return "", err
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	path := filepath.Join(dir, base+"_debug.png")
	if err := docimg.Save(path, img, docimg.DefaultQuality); err != nil {
		return "", err
	}
	return path, nil
}

func runRectify(args []string) error {
	c := newFlagSet("rectify")
	in := c.fs.String("in", "", "input image")
	outPath := c.fs.String("out", "", "output file (default <output.dir>/<name>_scan.<format>)")
	corners := c.fs.String("corners", "", `corners as JSON, e.g. [{"x":0,"y":0},...] in TL, TR, BR, BL order`)
	format := c.fs.String("format", "", "output format when -out is not given: jpg|png|webp")
	quality := c.fs.Int("quality", 0, "JPEG/WebP quality (1-100)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("rectify: -in is required")
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	log := logging.Component(logger, "cli")

	if *quality == 0 {
		*quality = cfg.Output.Quality
	}
	if *format == "" {
		*format = cfg.Output.Format
	}
	ext, err := docimg.ParseFormat(*format)
	if err != nil {
		return err
	}

	img, err := docimg.Open(*in)
	if err != nil {
		return err
	}

	var flat *scanner.ScanResult
	if *corners != "" {
		var pts []geom.Point
		if err := json.Unmarshal([]byte(*corners), &pts); err != nil {
			return fmt.Errorf("failed to parse corners: %w", err)
		}
		if len(pts) != 4 {
			return fmt.Errorf("%w: got %d", rectify.ErrInvalidCorners, len(pts))
		}
		var q geom.Quadrilateral
		copy(q[:], pts)
		flat = &scanner.ScanResult{Image: img, Corners: q}
	} else {
		sc, err := scanner.New(cfg.Detection, logger)
		if err != nil {
			return err
		}
		if flat, err = sc.Scan(img); err != nil {
			return err
		}
	}

	dest := *outPath
	if dest == "" {
		base := strings.TrimSuffix(filepath.Base(*in), filepath.Ext(*in))
		dest = filepath.Join(cfg.Output.Dir, base+"_scan"+docimg.Extension(ext))
	}
	if err := flat.Save(dest, *quality); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"input":    *in,
		"output":   dest,
		"detected": flat.Detected,
	}).Info("Document rectified")
	return nil
}

func runBatch(args []string) error {
	c := newFlagSet("batch")
	outDir := c.fs.String("out", "", "output directory (default output.dir)")
	format := c.fs.String("format", "", "output format: jpg|png|webp")
	quality := c.fs.Int("quality", 0, "JPEG/WebP quality (1-100)")
	workers := c.fs.Int("workers", 0, "files processed at once (default NumCPU)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.fs.NArg() == 0 {
		return errors.New("batch: at least one image is required")
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}

	opts := scanner.BatchOptions{
		OutputDir: cfg.Output.Dir,
		Format:    cfg.Output.Format,
		Quality:   cfg.Output.Quality,
		Workers:   *workers,
	}
	if *outDir != "" {
		opts.OutputDir = *outDir
	}
	if *format != "" {
		opts.Format = *format
	}
	if *quality != 0 {
		opts.Quality = *quality
	}

	sc, err := scanner.New(cfg.Detection, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := sc.ScanFiles(ctx, c.fs.Args(), opts)
	if perr := printJSON(results); perr != nil && err == nil {
		err = perr
	}
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

func runServe(args []string) error {
	c := newFlagSet("serve")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}

	// stdout is the protocol channel; logs stay on stderr.
	logger.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("Starting docscan tool server")

	server.ServerVersion = Version
	srv := server.New(cfg.Detection, logger)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runHTTP(args []string) error {
	c := newFlagSet("http")
	addr := c.fs.String("addr", "", "listen address (default server.addr)")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}

	api, err := httpapi.New(httpapi.Options{
		Scanner:     cfg.Detection,
		RateLimit:   cfg.Server.RateLimit,
		Burst:       cfg.Server.Burst,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		Format:      cfg.Output.Format,
		Quality:     cfg.Output.Quality,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.Start(*addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errCh
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
