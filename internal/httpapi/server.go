// Package httpapi exposes document detection and rectification over HTTP.
//
// Routes:
//
//	GET  /health       liveness probe
//	POST /v1/detect    multipart "file"; returns the document corners as JSON
//	POST /v1/rectify   multipart "file", optional "corners" (JSON array of
//	                   four {x,y}), "format" and "quality"; returns the image
//
// Every route is rate limited per client IP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan/internal/logging"
	"github.com/ironsheep/docscan/internal/scanner"
)

// Options configures the HTTP API.
type Options struct {
	// Scanner holds the detection defaults. SelectAllOnError applies to
	// /v1/rectify only; /v1/detect always reports a miss.
	Scanner scanner.Options

	// RateLimit is the sustained requests per second per client IP.
	RateLimit float64
	Burst     int

	// MaxUploadMB bounds the request body size.
	MaxUploadMB int

	// Format and Quality are the /v1/rectify output defaults.
	Format  string
	Quality int
}

// Server is the HTTP front end.
type Server struct {
	echo     *echo.Echo
	detector *scanner.Scanner
	scanner  *scanner.Scanner
	opts     Options
	log      *logrus.Entry
}

// New builds the router. A nil logger discards log output.
func New(opts Options, logger *logrus.Logger) (*Server, error) {
	sc, err := scanner.New(opts.Scanner, logger)
	if err != nil {
		return nil, err
	}
	detectOpts := opts.Scanner
	detectOpts.SelectAllOnError = false
	detector, err := scanner.New(detectOpts, logger)
	if err != nil {
		return nil, err
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 20
	}
	if opts.RateLimit <= 0 || opts.Burst <= 0 {
		return nil, fmt.Errorf("rate limit and burst must be positive (got %v, %d)", opts.RateLimit, opts.Burst)
	}

	s := &Server{
		echo:     echo.New(),
		detector: detector,
		scanner:  sc,
		opts:     opts,
		log:      logging.Component(logger, "httpapi"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError

	limiter := NewRateLimiter(opts.RateLimit, opts.Burst)
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.accessLog)
	s.echo.Use(limiter.Middleware)
	s.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dM", opts.MaxUploadMB)))

	s.echo.GET("/health", s.handleHealth)
	s.echo.POST("/v1/detect", s.handleDetect)
	s.echo.POST("/v1/rectify", s.handleRectify)
	return s, nil
}

// Handler returns the router for use with net/http or httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.log.WithField("addr", addr).Info("HTTP API listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// accessLog logs each request once it completes.
func (s *Server) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.log.WithFields(logrus.Fields{
			"method":    c.Request().Method,
			"path":      c.Path(),
			"status":    c.Response().Status,
			"client_ip": c.RealIP(),
			"duration":  time.Since(start).String(),
		}).Info("Request handled")
		return nil
	}
}
