package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dukex/editorial/pkg/cache"
	"github.com/dukex/editorial/pkg/cmd"
	"github.com/dukex/editorial/pkg/effects"
	"github.com/dukex/editorial/pkg/log"
	"github.com/dukex/editorial/pkg/otelhelper"
	"github.com/dukex/editorial/pkg/services"
	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort = 9091
	serviceName = "editorial-api"
)

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	command := &cli.Command{
		Name:                  "editorial-api",
		Usage:                 "Serve the editorial workflow and versioning API",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file path, sqlite://, postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "cache-url",
				Usage:   "Read-through cache (none, memory://, redis://)",
				Value:   "memory://",
				Sources: cli.EnvVars("CACHE_URL"),
			},
			&cli.StringFlag{
				Name:    "cache-sweep",
				Usage:   "Cron schedule for evicting expired in-memory cache entries",
				Value:   cache.DefaultSweepSchedule,
				Sources: cli.EnvVars("CACHE_SWEEP_SCHEDULE"),
			},
			&cli.DurationFlag{
				Name:    "history-ttl",
				Usage:   "How long a post's workflow history stays cached",
				Value:   services.DefaultHistoryTTL,
				Sources: cli.EnvVars("HISTORY_CACHE_TTL"),
			},
			&cli.DurationFlag{
				Name:    "stats-ttl",
				Usage:   "How long workflow statistics stay cached",
				Value:   services.DefaultStatsTTL,
				Sources: cli.EnvVars("STATS_CACHE_TTL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (none, gochannel, kafka)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.BoolFlag{
				Name:    "otel",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))
			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Editorial API")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			readCache, stopCache, err := cmd.NewCache(ctx, logger, command.String("cache-url"), command.String("cache-sweep"))
			if err != nil {
				return err
			}
			defer stopCache()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			deps := services.Dependencies{
				Persistence: persistence,
				Cache:       readCache,
				Audit:       cmd.NewAuditSink(logger, eventBus),
				Events:      eventBus,
				Effects:     effects.NewRunner(logger, 0),
				Locks:       services.NewPostLocks(),
				Logger:      logger,
				HistoryTTL:  command.Duration("history-ttl"),
				StatsTTL:    command.Duration("stats-ttl"),
			}

			if command.Bool("otel") {
				tracer, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
				if err != nil {
					return err
				}

				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()

					if err := shutdown(shutdownCtx); err != nil {
						logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
					}
				}()

				deps.Tracer = tracer
			}

			go watchFailures(ctx, deps.Effects)

			api := NewAPI(logger, deps)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return err
		},
	}

	err = command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

// watchFailures counts side effects that failed after their operation
// already succeeded. Each one was logged by the runner.
func watchFailures(ctx context.Context, runner *effects.Runner) {
	failed := 0

	for {
		select {
		case <-ctx.Done():
			return
		case failure := <-runner.Failures():
			failed++

			logger := log.WithModule("effects")
			logger.WarnContext(ctx, "Side effect failed",
				"effect", failure.Effect,
				"key", failure.Key,
				"total_failed", failed,
				"error", failure.Err,
			)
		}
	}
}
