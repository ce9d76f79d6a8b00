package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hearthside/foyer"
	"github.com/hearthside/foyer/edge"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry"
)

var version = "Dev"

func main() {
	config := foyer.LoadConfig("foyer.toml")

	if version != "Dev" {
		config.Version = version
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		log.Fatalf("invalid log level %s", config.LogLevel)
	}

	logHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(logHandler))

	logger := slog.With("comp", "main")
	logger.Info("starting foyer edge", "version", config.Version)

	if config.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:           config.SentryDSN,
			EnableTracing: config.EnableTracing,
		})
		if err != nil {
			log.Fatalf("error initiating sentry client, error %s, dsn %s", err, config.SentryDSN)
		}

		defer sentry.Flush(2 * time.Second)

		slog.SetDefault(slog.New(
			slogmulti.Fanout(
				logHandler,
				slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
			),
		).With("release", config.Version))
	}

	router, err := edge.NewRouter(config)
	if err != nil {
		logger.Error("error creating edge router", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.EdgeAddress, config.EdgePort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Error("edge stopping", "error", err)
		}
	}()

	logger.Info("edge listening", "port", config.EdgePort, "static", config.StaticOrigin, "api", config.APIOrigin)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("stopping", "signal", <-ch)

	httpServer.Close()
}
