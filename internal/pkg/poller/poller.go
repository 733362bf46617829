package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

const retentionSchedule = "@daily"

// Poller runs one poll cycle per interval: read the controller, store the
// reading, fan it out and check for an over-running heater.
type Poller struct {
	mu        sync.Mutex
	cfg       *config.Config
	sessions  sessionSource
	home      homeReader
	store     readingStore
	publisher publisher
	detector  detector
	notifier  notifier
	now       func() time.Time
	logger    *zap.Logger
}

func New(
	cfg *config.Config,
	sessions sessionSource,
	home homeReader,
	store readingStore,
	publisher publisher,
	detector detector,
	notifier notifier,
) *Poller {
	return &Poller{
		cfg:       cfg,
		sessions:  sessions,
		home:      home,
		store:     store,
		publisher: publisher,
		detector:  detector,
		notifier:  notifier,
		now:       time.Now,
		logger:    zap.L(),
	}
}

// RunOnce performs a single cycle and returns the stored reading. Cycles never
// overlap. Publish and notification failures are logged, not returned.
func (p *Poller) RunOnce(ctx context.Context) (model.Reading, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, err := p.sessions.Acquire(ctx)
	if err != nil {
		return model.Reading{}, fmt.Errorf("acquire session: %w", err)
	}
	reading, err := p.home.GetHome(ctx, session)
	if err != nil {
		return model.Reading{}, fmt.Errorf("get home: %w", err)
	}
	reading.Timestamp = p.now()

	if err := p.store.AppendReading(ctx, reading); err != nil {
		return model.Reading{}, fmt.Errorf("append reading: %w", err)
	}
	p.logger.Info("stored reading",
		zap.Time("timestamp", reading.Timestamp),
		zap.Intp("air", reading.AirTemp),
		zap.Intp("pool", reading.PoolTemp),
		zap.Intp("spa", reading.SpaTemp),
		zap.Int("heater", reading.HeaterSetpoint),
		zap.String("status", reading.Status),
	)

	if p.publisher != nil {
		p.publisher.Publish(ctx, reading)
	}
	p.checkAlert(ctx)
	return reading, nil
}

func (p *Poller) checkAlert(ctx context.Context) {
	recent, err := p.store.RecentReadings(ctx, p.detector.Window())
	if err != nil {
		p.logger.Error("failed to load recent readings", zap.Error(err))
		return
	}
	alert := p.detector.Check(recent)
	if alert == nil {
		return
	}
	p.logger.Warn("heater alert",
		zap.String("message", alert.Message),
		zap.Duration("duration", alert.Duration),
		zap.Time("since", alert.Since),
	)
	smtp := p.cfg.SmtpCfg
	if err := p.notifier.Send(ctx, alert.Message, smtp.From, smtp.To, smtp.Subject); err != nil {
		p.logger.Error("failed to send alert", zap.Error(err))
	}
}

// Start runs a cycle immediately and then on every poll interval until ctx is
// cancelled. When retention is configured old readings are pruned daily.
func (p *Poller) Start(ctx context.Context) error {
	logger := newCronLogger(p.logger)
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { p.cycle(ctx) }); err != nil {
		return err
	}

	if days := p.cfg.DatabaseCfg.RetentionDays; days > 0 {
		p.prune(ctx, days)
		if _, err := c.AddFunc(retentionSchedule, func() { p.prune(ctx, days) }); err != nil {
			return err
		}
	}

	p.cycle(ctx)
	c.Start()
	p.logger.Info("poller started", zap.Duration("interval", interval))

	<-ctx.Done()
	<-c.Stop().Done()
	p.logger.Info("poller stopped")
	return nil
}

func (p *Poller) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.Error("poll cycle failed", zap.Error(err))
	}
}

func (p *Poller) prune(ctx context.Context, days int) {
	removed, err := p.store.Cleanup(ctx, days)
	if err != nil {
		p.logger.Error("error cleaning up database", zap.Error(err))
		return
	}
	p.logger.Info("pruned old readings", zap.Int64("removed", removed), zap.Int("days", days))
}
