// Command zeptomail-webhook receives ZeptoMail webhook deliveries, logs them
// and optionally reports hard bounces by email.
package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/pure-golang/zeptomail/env"
	"github.com/pure-golang/zeptomail/httpserver/middleware"
	"github.com/pure-golang/zeptomail/httpserver/std"
	"github.com/pure-golang/zeptomail/logger"
	"github.com/pure-golang/zeptomail/mail/zeptomail"
	"github.com/pure-golang/zeptomail/metrics"
	"github.com/pure-golang/zeptomail/tracing"
	"github.com/pure-golang/zeptomail/tracing/jaeger"
	"github.com/pure-golang/zeptomail/webhook"
)

func main() {
	if err := run(); err != nil {
		logger.WithErr(err).Error("zeptomail-webhook stopped")
		os.Exit(1)
	}
}

func run() error {
	var logCfg logger.Config
	if err := env.InitConfig(&logCfg); err != nil {
		return errors.Wrap(err, "failed to load logger config")
	}
	logger.InitDefault(logCfg)

	var serverCfg std.Config
	if err := env.InitConfig(&serverCfg); err != nil {
		return errors.Wrap(err, "failed to load server config")
	}
	var metricsCfg metrics.Config
	if err := env.InitConfig(&metricsCfg); err != nil {
		return errors.Wrap(err, "failed to load metrics config")
	}
	var notifyCfg notifyConfig
	if err := env.InitConfig(&notifyCfg); err != nil {
		return errors.Wrap(err, "failed to load notification config")
	}

	closers := []io.Closer{initTracing()}
	defer func() { closeAll(closers) }()

	metricsServer, err := metrics.InitDefault(metricsCfg)
	if err != nil {
		return err
	}
	closers = append(closers, metricsServer)

	router := webhook.NewRouter(nil).
		OnOpen(logOpen).
		OnClick(logClick).
		Fallback(webhook.HandlerFunc(logUnknown))

	if notifyCfg.enabled() {
		client, err := zeptomail.NewDefault()
		if err != nil {
			return err
		}
		closers = append(closers, client)
		router.OnBounce(newBounceNotifier(client, notifyCfg).Handle)
	} else {
		router.OnBounce(logBounce)
	}

	mux := http.NewServeMux()
	mux.Handle(serverCfg.Path, router)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	server := std.NewDefault(serverCfg, middleware.Recovery(middleware.Monitoring(mux)))
	closers = append(closers, server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Start() }()

	select {
	case <-ctx.Done():
		slog.Default().Info("shutting down")
	case err = <-serveErr:
	}

	return err
}

// closeAll closes in reverse order of creation and keeps going past failures.
func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.WithErr(err).Warn("failed to close")
		}
	}
}

// initTracing enables OTLP export when TRACING_ENDPOINT is set.
func initTracing() tracing.Provider {
	var cfg jaeger.Config
	if err := env.InitConfig(&cfg); err != nil {
		slog.Default().Info("tracing disabled", "reason", err.Error())
		return tracing.NoopProvider{}
	}

	provider, err := tracing.Init(jaeger.NewProviderBuilder(cfg))
	if err != nil {
		logger.WithErr(err).Warn("tracing disabled")
	}
	return provider
}
