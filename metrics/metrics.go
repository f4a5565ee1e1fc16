// Package metrics serves Prometheus metrics of the process.
package metrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Host                  string `envconfig:"METRICS_HOST" default:"0.0.0.0"`
	Port                  int    `envconfig:"METRICS_PORT" default:"9090"`
	HttpServerReadTimeout int    `envconfig:"METRICS_READ_TIMEOUT" default:"30"`
}

// Server exposes /metrics.
type Server struct {
	config   Config
	server   *http.Server
	listener net.Listener
	logger   *slog.Logger
}

var _ io.Closer = (*Server)(nil)

// InitDefault installs the OpenTelemetry Prometheus bridge and starts serving.
func InitDefault(config Config) (*Server, error) {
	if err := InitPrometheus(); err != nil {
		return nil, errors.Wrap(err, "failed to init prometheus")
	}

	s := New(config)
	if err := s.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start metrics server")
	}

	return s, nil
}

func New(config Config) *Server {
	return &Server{
		config: config,
		server: NewHttpServer(config),
		logger: slog.Default().WithGroup("metrics"),
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}
	s.listener = l

	go func() {
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("metrics server failed", "error", err.Error())
		}
	}()

	s.logger.Info("metrics server started", "addr", l.Addr().String())
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return errors.Wrap(s.server.Shutdown(ctx), "failed to close metrics")
}

func NewHttpServer(conf Config) *http.Server {
	r := http.NewServeMux()
	r.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:        fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Handler:     r,
		ReadTimeout: time.Duration(conf.HttpServerReadTimeout) * time.Second,
	}
}
