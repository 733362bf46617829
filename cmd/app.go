package cmd

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/alert"
	"github.com/anicoll/pool-monitor/internal/pkg/cache"
	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/database"
	"github.com/anicoll/pool-monitor/internal/pkg/database/migration"
	"github.com/anicoll/pool-monitor/internal/pkg/iaqualink"
	"github.com/anicoll/pool-monitor/internal/pkg/live"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
	"github.com/anicoll/pool-monitor/internal/pkg/mqtt"
	"github.com/anicoll/pool-monitor/internal/pkg/notify"
	"github.com/anicoll/pool-monitor/internal/pkg/poller"
	"github.com/anicoll/pool-monitor/internal/pkg/publisher"
	"github.com/anicoll/pool-monitor/internal/pkg/server"
)

type credentialStore interface {
	GetSession(ctx context.Context) (*model.Session, error)
	PutSession(ctx context.Context, session *model.Session) error
}

type notifier interface {
	Send(ctx context.Context, message, from, to, subject string) error
}

// app holds the wired components and the closers to release them.
type app struct {
	db       *database.Database
	sessions *iaqualink.SessionManager
	commands *iaqualink.CommandClient
	poller   *poller.Poller
	hub      *live.Hub
	closers  []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := zap.L()
	a := &app{}

	if cfg.DatabaseCfg.MigrationsFolder != "" {
		if err := migration.Migrate(cfg.DatabaseCfg.URL, cfg.DatabaseCfg.MigrationsFolder); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	db, err := database.NewDatabase(ctx, cfg.DatabaseCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, func() { _ = db.Close() })

	var store credentialStore = db
	if cfg.RedisCfg.Addr != "" {
		sessionCache := cache.New(cfg.RedisCfg)
		if err := sessionCache.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = sessionCache.Close() })
		store = sessionCache
		logger.Info("using redis session store", zap.String("addr", cfg.RedisCfg.Addr))
	}

	httpClient := iaqualink.NewHTTPClient(cfg.IaqualinkCfg)
	a.sessions = iaqualink.NewSessionManager(cfg.IaqualinkCfg, httpClient, store)
	a.commands = iaqualink.NewCommandClient(cfg.IaqualinkCfg, httpClient, a.sessions)

	pub := publisher.New()
	a.hub = live.NewHub()
	a.closers = append(a.closers, a.hub.Close)
	if err := pub.Register("live", a.hub); err != nil {
		a.Close()
		return nil, err
	}
	if cfg.MqttCfg.Host != "" {
		mqttSvc := mqtt.New(mqtt.NewClient(cfg.MqttCfg))
		if err := mqttSvc.Connect(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect mqtt: %w", err)
		}
		if err := pub.Register("mqtt", mqttSvc); err != nil {
			a.Close()
			return nil, err
		}
	}
	logger.Info("reading publishers", zap.Strings("names", pub.Names()))

	var sender notifier = notify.NewLogSender()
	if cfg.SmtpCfg.Host != "" {
		emailSender, err := notify.NewEmailSender(cfg.SmtpCfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("smtp: %w", err)
		}
		sender = emailSender
	}

	a.poller = poller.New(cfg, a.sessions, a.commands, db, pub, alert.New(cfg.AlertCfg), sender)
	return a, nil
}

func (a *app) handler(cfg *config.Config) (http.Handler, error) {
	srv, err := server.New(cfg.ServerCfg, a.poller, a.db, a.hub)
	if err != nil {
		return nil, err
	}
	return srv.Handler(), nil
}
