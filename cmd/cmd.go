package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/database/migration"
	"github.com/anicoll/pool-monitor/pkg/hasher"
	"github.com/anicoll/pool-monitor/pkg/sockets"
)

const shutdownTimeout = 10 * time.Second

// loadConfig reads the environment and applies any command line overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}
	if ctx.IsSet("migrations-folder") {
		cfg.DatabaseCfg.MigrationsFolder = ctx.String("migrations-folder")
	}
	if ctx.IsSet("listen") {
		cfg.ServerCfg.Listen = ctx.String("listen")
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	var err error
	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// setup loads config and installs the global logger. The returned func
// flushes the logger.
func setup(ctx *cli.Context) (*config.Config, func(), error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, func() {
		_ = logger.Sync() // flushes buffer, if any.
	}, nil
}

// ServeCommand polls on a schedule and serves the HTTP surface.
func ServeCommand(ctx *cli.Context) error {
	cfg, flush, err := setup(ctx)
	if err != nil {
		return err
	}
	defer flush()

	a, err := build(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, err := a.handler(cfg)
	if err != nil {
		return err
	}
	return run(ctx.Context, cfg, a.poller, handler)
}

func run(ctx context.Context, cfg *config.Config, poller PollService, handler http.Handler) error {
	logger := zap.L()
	eg, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:      handler,
		Addr:         cfg.ServerCfg.Listen,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	eg.Go(func() error {
		return poller.Start(ctx)
	})

	eg.Go(func() error {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("context done")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// PollCommand runs a single cycle and prints the stored reading.
func PollCommand(ctx *cli.Context) error {
	cfg, flush, err := setup(ctx)
	if err != nil {
		return err
	}
	defer flush()

	a, err := build(ctx.Context, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	reading, err := a.poller.RunOnce(ctx.Context)
	if err != nil {
		return err
	}
	if err := printJSON(ctx.App.Writer, reading); err != nil {
		return err
	}

	if !ctx.Bool("devices") {
		return nil
	}
	session, err := a.sessions.Acquire(ctx.Context)
	if err != nil {
		return err
	}
	devices, err := a.commands.GetDevices(ctx.Context, session)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, devices)
}

// MigrateCommand applies pending migrations and exits.
func MigrateCommand(ctx *cli.Context) error {
	cfg, flush, err := setup(ctx)
	if err != nil {
		return err
	}
	defer flush()
	if cfg.DatabaseCfg.MigrationsFolder == "" {
		return errors.New("migrations folder is required")
	}
	if err := migration.Migrate(cfg.DatabaseCfg.URL, cfg.DatabaseCfg.MigrationsFolder); err != nil {
		return err
	}
	zap.L().Info("migrations applied", zap.String("folder", cfg.DatabaseCfg.MigrationsFolder))
	return nil
}

// HashTokenCommand prints a bcrypt hash for TRIGGER_TOKEN_HASH. A token is
// generated when none is given.
func HashTokenCommand(ctx *cli.Context) error {
	token := ctx.Args().First()
	if token == "" {
		var err error
		token, err = hasher.GenerateToken(24)
		if err != nil {
			return err
		}
	}
	hash, err := hasher.HashToken([]byte(token))
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "token: %s\nTRIGGER_TOKEN_HASH=%s\n", token, hash)
	return nil
}

// WatchCommand prints readings from a running server's live feed.
func WatchCommand(ctx *cli.Context) error {
	conn := sockets.New(
		sockets.WithPingInterval(30*time.Second),
		sockets.OnMessage(func(msg []byte) {
			fmt.Fprintln(ctx.App.Writer, string(msg))
		}),
	)
	if err := conn.Dial(ctx.Context, ctx.String("url")); err != nil {
		return err
	}
	defer conn.Close()

	select {
	case <-ctx.Context.Done():
		return nil
	case <-conn.Done():
		return errors.New("live feed closed")
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
