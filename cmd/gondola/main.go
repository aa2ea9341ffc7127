package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/openparks/gondola"
	"github.com/openparks/gondola/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	app := &cli.App{
		Name:  "gondola",
		Usage: "destination runtime harness",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "runtime config yaml",
				Value:   "gondola.yaml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "debug-level runtime logs",
			},
		},
		Commands: []*cli.Command{
			checkCmd(),
			fetchCmd(),
			syncCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func runtimeLogger(c *cli.Context) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if c.Bool("verbose") {
		opts.Level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With(
		slog.String("service", "gondola"),
	)
}

func loadRuntime(c *cli.Context) (*gondola.Runtime, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	return gondola.New(c.Context, cfg, runtimeLogger(c))
}

// checkCmd opens the store and reports basic health. Exit 0 on success,
// 1 on any failure.
func checkCmd() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "validate config and open the cache store",
		Action: func(c *cli.Context) error {
			rt, err := loadRuntime(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("check failed: %v", err), 1)
			}
			defer rt.Close()

			gets, hits, sets, deletes := rt.Store().Metrics()
			log.Info().
				Int64("gets", gets).
				Int64("hits", hits).
				Int64("sets", sets).
				Int64("deletes", deletes).
				Msg("store opened")
			return nil
		},
	}
}

// syncCmd runs one registered connector end to end and prints a summary.
// Exit 0 only when every entity synced cleanly.
func syncCmd() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "run a registered connector once",
		ArgsUsage: "CONNECTOR",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit(fmt.Sprintf("exactly one connector required (registered: %v)", gondola.Connectors()), 1)
			}

			rt, err := loadRuntime(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("sync setup failed: %v", err), 1)
			}
			defer rt.Close()

			conn, err := gondola.BuildConnector(c.Args().First(), rt)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			res, err := rt.Sync(c.Context, conn)
			if err != nil {
				return cli.Exit(fmt.Sprintf("sync failed: %v", err), 1)
			}

			log.Info().
				Str("connector", conn.ID()).
				Int("entities", len(res.Entities)).
				Int("live_updates", res.LiveUpdates).
				Int("schedules", res.Schedules).
				Int("errors", len(res.Errors)).
				Msg("sync finished")
			for _, e := range res.Errors {
				log.Warn().Str("entity", e.EntityID).Err(e.Err).Msg("entity failed")
			}
			if res.Failed() {
				return cli.Exit("sync finished with errors", 1)
			}
			return nil
		},
	}
}

// fetchCmd issues one request through the pipeline, for poking at vendor
// endpoints with the runtime's retry and 202/303 policies applied.
func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "issue one GET through the request pipeline",
		ArgsUsage: "URL",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "retries",
				Usage: "transport retry count (0 disables)",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "unbounded",
				Usage: "wait without a timeout (slow server-side generation)",
			},
			&cli.StringSliceFlag{
				Name:  "tag",
				Usage: "attach a tag to the request",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("exactly one URL required", 1)
			}

			rt, err := loadRuntime(c)
			if err != nil {
				return cli.Exit(fmt.Sprintf("fetch setup failed: %v", err), 1)
			}
			defer rt.Close()

			d := gondola.NewDescriptor(http.MethodGet, c.Args().First())
			d.Tag(c.StringSlice("tag")...)
			if c.Int("retries") >= 0 {
				d.Retries = c.Int("retries")
			}
			if c.Bool("unbounded") {
				d.TimeoutPolicy = gondola.TimeoutUnbounded
			}

			ctx := context.Background()
			env, err := rt.Fetch(ctx, d)
			if err != nil {
				return cli.Exit(fmt.Sprintf("fetch failed: %v", err), 1)
			}
			if env == nil {
				return cli.Exit("response consumed by interceptor, refetch required", 1)
			}

			log.Info().
				Int("status", env.StatusCode).
				Int("bytes", len(env.Body)).
				Msg("fetched")
			_, _ = os.Stdout.Write(env.Body)
			return nil
		},
	}
}
