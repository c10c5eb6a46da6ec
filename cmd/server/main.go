package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	sessionmiddleware "github.com/epiclo/go-session-middleware"
	"github.com/epiclo/go-session-middleware/config"
	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/grant"
	"github.com/epiclo/go-session-middleware/internal/server"
	"github.com/epiclo/go-session-middleware/token"
)

func main() {
	cfg := config.MustLoad(config.ModeServer)

	log, err := server.NewLogger(cfg.LogLevel, cfg.Development())
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logger")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Error("failed to close store")
		}
	}()

	issuer, err := token.New(cfg.SecretKey, token.WithIssuer(cfg.Session.Issuer))
	if err != nil {
		return err
	}

	sessionLogger := sessionmiddleware.NewLogrusLogger(log)

	grants, err := grant.New(issuer, store, store, grant.WithLogger(sessionLogger))
	if err != nil {
		return err
	}

	metrics, err := sessionmiddleware.NewPrometheusMetrics(prometheus.DefaultRegisterer, "")
	if err != nil {
		return err
	}

	resolver, err := core.New(
		core.WithIssuer(issuer),
		core.WithStore(grants),
		core.WithRotationThreshold(cfg.Session.RotationThreshold),
		core.WithLogger(sessionLogger),
		core.WithTracer(otel.Tracer(core.TracerName)),
		core.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	middleware, err := sessionmiddleware.New(
		sessionmiddleware.WithCore(resolver),
		sessionmiddleware.WithDevelopment(cfg.Development()),
		sessionmiddleware.WithLogger(sessionLogger),
	)
	if err != nil {
		return err
	}

	router := server.NewRouter(server.Deps{
		Middleware:  middleware,
		Grants:      grants,
		Users:       store,
		Logger:      log,
		Metrics:     promhttp.Handler(),
		Development: cfg.Development(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"address": cfg.HTTP.Address,
			"env":     cfg.Env,
			"storage": cfg.Storage.Driver,
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
