package poller

import (
	"context"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

type sessionSource interface {
	Acquire(ctx context.Context) (*model.Session, error)
}

type homeReader interface {
	GetHome(ctx context.Context, session *model.Session) (model.Reading, error)
}

type readingStore interface {
	AppendReading(ctx context.Context, reading model.Reading) error
	RecentReadings(ctx context.Context, limit int) (model.Readings, error)
	Cleanup(ctx context.Context, days int) (int64, error)
}

type publisher interface {
	Publish(ctx context.Context, reading model.Reading) int
}

type detector interface {
	Window() int
	Check(recent model.Readings) *model.Alert
}

type notifier interface {
	Send(ctx context.Context, message, from, to, subject string) error
}
