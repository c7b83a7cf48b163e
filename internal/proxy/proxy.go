// Package proxy serves the same-origin HTTP surface of the monitor: a
// pass-through to the venue REST API and the server-side volume statistics
// route that holds the admin API key.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// forwardedHeaders are the only request headers passed upstream.
var forwardedHeaders = []string{"Content-Type", "Authorization", "X-API-Key"}

// Config holds proxy configuration.
type Config struct {
	TargetURL    string        // Venue REST base, e.g. https://api.renance.xyz/api/v1
	VolumeURL    string        // Admin trade-volume endpoint
	VolumeAPIKey string        // Sent as X-API-Key to VolumeURL
	Timeout      time.Duration // Upstream request timeout (default: 30s)
}

// Server is the proxy HTTP server.
type Server struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
	engine *gin.Engine
}

// New creates a proxy Server.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)
	r.GET("/api/volume", s.volume)
	r.GET("/api/proxy/*path", s.forward)
	r.POST("/api/proxy/*path", s.forward)

	s.engine = r
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("proxy listening", "addr", addr, "target", s.cfg.TargetURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("proxy stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// forward relays a request under /api/proxy to the venue REST API.
func (s *Server) forward(c *gin.Context) {
	target := strings.TrimRight(s.cfg.TargetURL, "/") + "/" + strings.TrimPrefix(c.Param("path"), "/")
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}

	var body io.Reader
	if c.Request.Method == http.MethodPost {
		body = c.Request.Body
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, body)
	if err != nil {
		s.logger.Error("build proxy request", "target", target, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "proxy request failed"})
		return
	}
	for _, h := range forwardedHeaders {
		if v := c.GetHeader(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("proxy request failed", "target", target, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "proxy request failed"})
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("read proxy response", "target", target, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "proxy request failed"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(resp.StatusCode, contentType, data)
}

// volume fetches trade-volume statistics with the server-side API key.
func (s *Server) volume(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	target := s.cfg.VolumeURL
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, target, nil)
	if err != nil {
		s.logger.Error("build volume request", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	req.Header.Set("X-API-Key", s.cfg.VolumeAPIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("volume request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("volume upstream error", "status", resp.StatusCode)
		c.JSON(resp.StatusCode, gin.H{"error": fmt.Sprintf("upstream request failed: %d", resp.StatusCode)})
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		s.logger.Error("read volume response", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(http.StatusOK, contentType, data)
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
