package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"playlist/config"
	"playlist/logging"
	"playlist/server"
)

func main() {
	app := &cli.Command{
		Name:  "playlist",
		Usage: "Keep a personal list of songs and share it with a link",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("PLAYLIST_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the web server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address, overrides http.addr",
					},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create or upgrade the database schema and exit",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "playlist:", err)
		os.Exit(1)
	}
}

func setup(cmd *cli.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	return cfg, log, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	if addr := cmd.String("addr"); addr != "" {
		cfg.HTTP.Addr = addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close")
		}
	}()

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTP.Addr, err)
	}

	return app.Run(ctx, ln)
}

func migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	st, err := server.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("schema is up to date")

	return st.Close()
}
