package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/pool-monitor/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			EnvVars: []string{"LOG_LEVEL"},
			Value:   "INFO",
		},
		&cli.StringFlag{
			Name:    "migrations-folder",
			EnvVars: []string{"MIGRATIONS_FOLDER"},
			Value:   "",
		},
	}

	app := &cli.App{
		Name:  "pool-monitor",
		Usage: "poll an iAqualink pool controller and alert on long heater runs",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "poll on a schedule and serve the web interface",
				Action: cmd.ServeCommand,
				Flags: append(logFlags,
					&cli.StringFlag{
						Name:    "listen",
						EnvVars: []string{"LISTEN_ADDR"},
						Value:   "0.0.0.0:8080",
					},
				),
			},
			{
				Name:   "poll",
				Usage:  "run a single poll cycle and print the reading",
				Action: cmd.PollCommand,
				Flags: append(logFlags,
					&cli.BoolFlag{
						Name:  "devices",
						Usage: "also print the controller's device list",
					},
				),
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations",
				Action: cmd.MigrateCommand,
				Flags:  logFlags,
			},
			{
				Name:      "hash-token",
				Usage:     "hash a manual update token for TRIGGER_TOKEN_HASH",
				ArgsUsage: "[token]",
				Action:    cmd.HashTokenCommand,
			},
			{
				Name:   "watch",
				Usage:  "print readings from a running server's live feed",
				Action: cmd.WatchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Value: "ws://127.0.0.1:8080/ws",
					},
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
