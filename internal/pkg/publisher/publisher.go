package publisher

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

type sink interface {
	PublishReading(ctx context.Context, reading model.Reading) error
}

// Publisher fans a reading out to every registered sink. Sinks are best
// effort: a failing sink is logged and the rest still receive the reading.
type Publisher struct {
	mu     sync.RWMutex
	sinks  map[string]sink
	logger *zap.Logger
}

func New() *Publisher {
	return &Publisher{
		sinks:  make(map[string]sink),
		logger: zap.L(),
	}
}

func (p *Publisher) Register(name string, s sink) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sinks[name]; ok {
		return errAlreadyRegistered
	}
	p.sinks[name] = s
	return nil
}

// Names lists the registered sinks in order.
func (p *Publisher) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := lo.Keys(p.sinks)
	sort.Strings(names)
	return names
}

// Publish sends reading to all sinks and returns how many accepted it.
func (p *Publisher) Publish(ctx context.Context, reading model.Reading) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	count := 0
	for name, s := range p.sinks {
		if err := s.PublishReading(ctx, reading); err != nil {
			p.logger.Error("failed to publish reading", zap.Error(err), zap.String("publisher", name))
			continue
		}
		count++
		p.logger.Debug("published reading", zap.String("publisher", name))
	}
	return count
}
