package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hearthside/foyer"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry"

	// load handler packages
	_ "github.com/hearthside/foyer/handlers/contact"
	_ "github.com/hearthside/foyer/handlers/metrics"
	_ "github.com/hearthside/foyer/handlers/subscribe"

	// load available stores
	_ "github.com/hearthside/foyer/backends/dynamo"
)

var version = "Dev"

func main() {
	config := foyer.LoadConfig("foyer.toml")

	// if we have a custom version, use it
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

	// configure our logger
	logHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(logHandler))

	logger := slog.With("comp", "main")
	logger.Info("starting foyer", "version", config.Version)

	// if we have a DSN entry, try to initialize it
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

	// load our store
	store, err := foyer.NewStore(config)
	if err != nil {
		logger.Error("error creating store", "error", err)
		os.Exit(1)
	}

	server := foyer.NewServer(config, store)
	if err := server.Start(); err != nil {
		logger.Error("unable to start server", "error", err)
		os.Exit(1)
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("stopping", "signal", <-ch)

	server.Stop()
}
