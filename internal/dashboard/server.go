// internal/dashboard/server.go
package dashboard

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/signalnine/netloginsight/internal/analyzer"
	"github.com/signalnine/netloginsight/internal/config"
	"github.com/signalnine/netloginsight/internal/history"
)

// Server is the dashboard web server
type Server struct {
	cfg      *config.Config
	features config.Features
	store    history.Store
	server   *http.Server
}

// NewServer creates a new dashboard server
func NewServer(cfg *config.Config) (*Server, error) {
	features := cfg.Features()

	store, err := history.New(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	opts := Options{
		History:         store,
		Features:        features,
		ModelName:       cfg.Model.Name,
		MaxPayloadBytes: cfg.MaxPayloadBytes,
		Metrics:         NewMetrics(),
	}
	if features.Analysis {
		opts.Analyzer = analyzer.New(analyzer.Config{
			BaseURL:        cfg.Model.URL,
			Model:          cfg.Model.Name,
			APIKey:         cfg.Model.APIKey,
			Timeout:        cfg.Model.Timeout,
			ReportLanguage: cfg.Model.ReportLanguage,
		})
	}

	handler, err := NewHandler(opts)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build handler: %w", err)
	}

	gz, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("gzip wrapper: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gz(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Analyze blocks on the model call
		WriteTimeout: cfg.Model.Timeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		cfg:      cfg,
		features: features,
		store:    store,
		server:   server,
	}, nil
}

// Run listens on the configured address and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done. The listener is
// wrapped with TLS when a certificate pair is configured.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.store.Close()

	if s.cfg.TLSCert != "" && s.cfg.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCert, s.cfg.TLSKey)
		if err != nil {
			ln.Close()
			return fmt.Errorf("load TLS cert: %w", err)
		}
		s.server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		ln = tls.NewListener(ln, s.server.TLSConfig)
	}

	slog.Info("dashboard starting",
		slog.String("addr", ln.Addr().String()),
		slog.Bool("tls", s.server.TLSConfig != nil),
		slog.Bool("analysis", s.features.Analysis),
		slog.Bool("history", s.features.History),
	)
	if !s.features.Analysis {
		slog.Warn("no model API key configured, analysis is disabled")
	}
	if !s.features.History {
		slog.Warn("history store not configured, running in local mode")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("dashboard shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	case err := <-errCh:
		return err
	}

	return nil
}
