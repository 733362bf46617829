package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/pool-monitor/internal/pkg/alert"
	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

var baseTime = time.Date(2026, 7, 4, 18, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func heating() model.Reading {
	return model.Reading{
		AirTemp:        intPtr(70),
		PoolTemp:       intPtr(78),
		SpaTemp:        intPtr(95),
		HeaterSetpoint: 102,
		HeaterActive:   true,
		Status:         model.StatusOnline,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		SmtpCfg: config.SmtpConfig{
			From:    "pool@example.com",
			To:      "owner@example.com",
			Subject: "Pool Alert",
		},
		PollInterval: 20 * time.Millisecond,
	}
}

type fixture struct {
	poller    *Poller
	home      *MockHome
	store     *memoryStore
	publisher *MockPublisher
	notifier  *MockNotifier
}

func useTestLogger(t *testing.T) {
	t.Helper()
	original := zap.L()
	zap.ReplaceGlobals(zaptest.NewLogger(t))
	t.Cleanup(func() {
		zap.ReplaceGlobals(original)
	})
}

func newFixture(t *testing.T, home *MockHome) fixture {
	t.Helper()
	useTestLogger(t)
	f := fixture{
		home:      home,
		store:     &memoryStore{},
		publisher: &MockPublisher{},
		notifier:  &MockNotifier{},
	}
	f.poller = New(testConfig(), &MockSessions{}, home, f.store, f.publisher,
		alert.New(config.AlertConfig{}), f.notifier)
	f.poller.now = func() time.Time { return baseTime }
	return f
}

func TestRunOnce_SixtyFiveMinuteRunSendsAlert(t *testing.T) {
	f := newFixture(t, &MockHome{GetHomeFunc: func(ctx context.Context, session *model.Session) (model.Reading, error) {
		return heating(), nil
	}})
	// 13 earlier samples at 5 minute spacing, oldest 65 minutes ago
	for i := 13; i >= 1; i-- {
		r := heating()
		r.Timestamp = baseTime.Add(-time.Duration(i) * 5 * time.Minute)
		require.NoError(t, f.store.AppendReading(context.Background(), r))
	}

	reading, err := f.poller.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, baseTime, reading.Timestamp)
	assert.Equal(t, 14, f.store.count())
	require.Len(t, f.publisher.published, 1)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, sentMessage{
		message: "The propane heater has been on for longer than 1 hour, 5 minutes.",
		from:    "pool@example.com",
		to:      "owner@example.com",
		subject: "Pool Alert",
	}, f.notifier.sent[0])
}

func TestRunOnce_ShortRunNoAlert(t *testing.T) {
	f := newFixture(t, &MockHome{GetHomeFunc: func(ctx context.Context, session *model.Session) (model.Reading, error) {
		return heating(), nil
	}})
	r := heating()
	r.Timestamp = baseTime.Add(-30 * time.Minute)
	require.NoError(t, f.store.AppendReading(context.Background(), r))

	_, err := f.poller.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent)
}

func TestRunOnce_DegradedReadingIsStored(t *testing.T) {
	f := newFixture(t, &MockHome{GetHomeFunc: func(ctx context.Context, session *model.Session) (model.Reading, error) {
		return model.Reading{Status: "Offline"}, nil
	}})

	reading, err := f.poller.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, reading.Degraded())
	assert.Nil(t, reading.PoolTemp)
	assert.Equal(t, 1, f.store.count())
	assert.Empty(t, f.notifier.sent)
}

func TestRunOnce_ErrorsAbortCycle(t *testing.T) {
	upstream := errors.New("upstream down")

	t.Run("acquire", func(t *testing.T) {
		f := newFixture(t, &MockHome{})
		f.poller.sessions = &MockSessions{AcquireFunc: func(ctx context.Context) (*model.Session, error) {
			return nil, upstream
		}}
		_, err := f.poller.RunOnce(context.Background())
		assert.ErrorIs(t, err, upstream)
		assert.Zero(t, f.home.calls)
		assert.Zero(t, f.store.count())
	})

	t.Run("get home", func(t *testing.T) {
		f := newFixture(t, &MockHome{GetHomeFunc: func(ctx context.Context, session *model.Session) (model.Reading, error) {
			return model.Reading{}, upstream
		}})
		_, err := f.poller.RunOnce(context.Background())
		assert.ErrorIs(t, err, upstream)
		assert.Zero(t, f.store.count())
		assert.Empty(t, f.publisher.published)
	})

	t.Run("append", func(t *testing.T) {
		f := newFixture(t, &MockHome{GetHomeFunc: func(ctx context.Context, session *model.Session) (model.Reading, error) {
			return heating(), nil
		}})
		f.store.AppendErr = upstream
		_, err := f.poller.RunOnce(context.Background())
		assert.ErrorIs(t, err, upstream)
		assert.Empty(t, f.publisher.published)
	})
}

func TestRunOnce_NotifierFailureIsNotACycleError(t *testing.T) {
	f := newFixture(t, &MockHome{GetHomeFunc: func(ctx context.Context, session *model.Session) (model.Reading, error) {
		return heating(), nil
	}})
	f.notifier.SendErr = errors.New("smtp refused")
	for i := 14; i >= 1; i-- {
		r := heating()
		r.Timestamp = baseTime.Add(-time.Duration(i) * 5 * time.Minute)
		require.NoError(t, f.store.AppendReading(context.Background(), r))
	}

	_, err := f.poller.RunOnce(context.Background())
	assert.NoError(t, err)
	assert.Len(t, f.notifier.sent, 1)
}

func TestStart_RunsCyclesUntilCancelled(t *testing.T) {
	f := newFixture(t, &MockHome{GetHomeFunc: func(ctx context.Context, session *model.Session) (model.Reading, error) {
		return model.Reading{Status: model.StatusOnline}, nil
	}})
	f.poller.now = time.Now
	f.poller.cfg.PollInterval = time.Second
	f.poller.cfg.DatabaseCfg.RetentionDays = 30

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.poller.Start(ctx) }()

	require.Eventually(t, func() bool { return f.store.count() >= 2 }, 5*time.Second, 20*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop")
	}
	assert.Equal(t, []int{30}, f.store.cleanupDay)
}

func TestNewFixture_RestoresGlobalLogger(t *testing.T) {
	before := zap.L()
	t.Run("fixture", func(t *testing.T) {
		newFixture(t, &MockHome{})
		assert.NotSame(t, before, zap.L())
	})
	assert.Same(t, before, zap.L())
}
