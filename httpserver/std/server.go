package std

import (
	"context"
	stdErr "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/pure-golang/zeptomail/httpserver"
)

const ShutdownTimeout = 15 * time.Second

var _ httpserver.RunableProvider = (*Server)(nil)

type Config struct {
	Host        string        `envconfig:"WEBHOOK_HOST"`
	Port        int           `envconfig:"WEBHOOK_PORT" default:"8080"`
	Path        string        `envconfig:"WEBHOOK_PATH" default:"/webhooks/zeptomail"`
	TLSCertPath string        `envconfig:"WEBHOOK_TLS_CERT_PATH"`
	TLSKeyPath  string        `envconfig:"WEBHOOK_TLS_KEY_PATH"`
	ReadTimeout time.Duration `envconfig:"WEBHOOK_READ_TIMEOUT" default:"30s"`
}

type Options struct {
	Logger *slog.Logger
}

type Server struct {
	logger *slog.Logger
	server *http.Server
	config Config

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
	once     sync.Once
}

func NewDefault(c Config, h http.Handler) *Server {
	return New(c, h, nil)
}

func New(c Config, h http.Handler, opts *Options) *Server {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.WithGroup("webserver")

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", c.Host, c.Port),
			Handler:           h,
			ReadTimeout:       c.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelError),
		},
		logger: log,
		config: c,
		ready:  make(chan struct{}),
	}
}

// Start listens and serves until Close. A closed server is not an error.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.server.Addr)
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.once.Do(func() { close(s.ready) })

	s.logger.Info("server starting", slog.String("addr", l.Addr().String()), slog.Bool("tls", s.config.TLSCertPath != ""))

	if s.config.TLSCertPath == "" {
		err = s.server.Serve(l)
	} else {
		err = s.server.ServeTLS(l, s.config.TLSCertPath, s.config.TLSKeyPath)
	}

	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return errors.Wrap(err, "serve failed")
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if err != nil {
		err = stdErr.Join(err, errors.Wrap(s.server.Close(), "failed to close server"))
	}

	s.logger.Info("server closed")

	return errors.Wrap(err, "server shutdown failed")
}

func (s *Server) Run() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.With("error", err).Error("webserver crashed")
		}
	}()
}
