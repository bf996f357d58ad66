package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/docscan/internal/geom"
	docimg "github.com/ironsheep/docscan/internal/imaging"
)

// BatchOptions controls ScanFiles.
type BatchOptions struct {
	// OutputDir receives the rectified documents. Empty skips rectification.
	OutputDir string

	// Format of the written files ("jpeg", "png", "webp"). Default jpeg.
	Format string

	// Quality for JPEG and WebP output. Default 100.
	Quality int

	// Workers bounds the number of files processed at once. Default NumCPU.
	Workers int
}

// FileResult is the outcome for one input file.
type FileResult struct {
	Input    string              `json:"input"`
	Output   string              `json:"output,omitempty"`
	Corners  *geom.Quadrilateral `json:"corners,omitempty"`
	Detected bool                `json:"detected"`
	Error    string              `json:"error,omitempty"`

	// Err is the failure behind Error.
	Err error `json:"-"`
}

// ScanFiles scans every path in parallel and, when OutputDir is set, writes
// each rectified document there as <name>_scan.<ext>.
//
// Failures are recorded per file and do not stop the batch. The returned
// error is non-nil only when ctx is cancelled; results keep input order.
func (s *Scanner) ScanFiles(ctx context.Context, paths []string, opts BatchOptions) ([]FileResult, error) {
	format := docimg.FormatJPEG
	if opts.Format != "" {
		f, err := docimg.ParseFormat(opts.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.scanFile(path, opts.OutputDir, format, opts.Quality)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("batch cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("batch cancelled: %w", err)
	}
	return results, nil
}

func (s *Scanner) scanFile(path, outDir, format string, quality int) FileResult {
	res := FileResult{Input: path}
	logger := s.log.WithField("file", path)

	fail := func(err error) FileResult {
		logger.WithError(err).Warn("Failed to scan file")
		res.Err = err
		res.Error = err.Error()
		return res
	}

	img, err := docimg.Open(path)
	if err != nil {
		return fail(err)
	}

	scan, err := s.Scan(img)
	if err != nil {
		return fail(err)
	}
	corners := scan.Corners
	res.Corners = &corners
	res.Detected = scan.Detected

	if outDir == "" {
		return res
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(outDir, base+"_scan"+docimg.Extension(format))
	if err := scan.Save(out, quality); err != nil {
		return fail(err)
	}
	res.Output = out

	logger.WithFields(logrus.Fields{
		"output":   out,
		"detected": scan.Detected,
	}).Info("Document saved")
	return res
}
