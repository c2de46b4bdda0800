package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"github.com/mkrupp/inventory-tracker/internal/infra/config"
	"github.com/mkrupp/inventory-tracker/internal/infra/database"
	"github.com/mkrupp/inventory-tracker/internal/infra/logging"
	transport "github.com/mkrupp/inventory-tracker/internal/infra/transport/http"
	"github.com/mkrupp/inventory-tracker/internal/repo/session"
	"github.com/mkrupp/inventory-tracker/internal/repo/user"
	"github.com/mkrupp/inventory-tracker/internal/svc/authsvc"
)

const (
	appName = "inventory"
	svcName = "auth"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig          `envPrefix:"LOG_"`
	DB      database.Config               `envPrefix:"DB_"`
	Auth    authsvc.AuthConfig            `envPrefix:"AUTH_"`
	Metrics transport.HTTPTransportConfig `envPrefix:"METRICS_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintln(os.Stderr, "parse config:", err)
		os.Exit(2)
	}

	if err := logging.Configure(ctx, cfg.Log, loggerName); err != nil {
		fmt.Fprintln(os.Stderr, "configure logging:", err)
		os.Exit(2)
	}

	tty := -1
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		tty = fd
	}

	if err := run(ctx, cfg, os.Stdin, os.Stdout, tty); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, in io.Reader, out io.Writer, tty int) (err error) {
	log := logging.GetLogger("cmd.inventoryauth")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", logging.Err(err))
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := authsvc.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("new metrics: %w", err)
	}

	authSvc := authsvc.NewAuthService(
		user.NewSQLiteUserRepository(db),
		session.NewSQLiteSessionRepository(db, nil),
		cfg.Auth,
		metrics,
	)

	if err := authSvc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	if cfg.Metrics.Enabled() {
		go serveMetrics(ctx, reg, cfg.Metrics, log)
	}

	return newConsole(authSvc, in, out, tty).Run(ctx)
}

func serveMetrics(ctx context.Context, reg *prometheus.Registry, cfg transport.HTTPTransportConfig, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog: logging.GetLogLogger(log, logging.LevelError),
		Registry: reg,
	}))

	if err := transport.ListenAndServe(ctx, mux, cfg); err != nil {
		log.ErrorContext(ctx, "metrics server failed", logging.Err(err))
	}
}
