package poller

import (
	"context"
	"sort"
	"sync"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

type MockSessions struct {
	AcquireFunc func(ctx context.Context) (*model.Session, error)
}

func (m *MockSessions) Acquire(ctx context.Context) (*model.Session, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx)
	}
	return &model.Session{ID: "sess", UserID: "1", AuthToken: "tok", DeviceSerial: "SERIAL"}, nil
}

type MockHome struct {
	GetHomeFunc func(ctx context.Context, session *model.Session) (model.Reading, error)
	calls       int
}

func (m *MockHome) GetHome(ctx context.Context, session *model.Session) (model.Reading, error) {
	m.calls++
	return m.GetHomeFunc(ctx, session)
}

// memoryStore keeps readings in insertion order.
type memoryStore struct {
	mu         sync.Mutex
	readings   model.Readings
	AppendErr  error
	RecentErr  error
	cleanupDay []int
}

func (s *memoryStore) AppendReading(ctx context.Context, reading model.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AppendErr != nil {
		return s.AppendErr
	}
	s.readings = append(s.readings, reading)
	return nil
}

func (s *memoryStore) RecentReadings(ctx context.Context, limit int) (model.Readings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RecentErr != nil {
		return nil, s.RecentErr
	}
	out := append(model.Readings(nil), s.readings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryStore) Cleanup(ctx context.Context, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupDay = append(s.cleanupDay, days)
	return 0, nil
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.readings)
}

type MockPublisher struct {
	published []model.Reading
}

func (m *MockPublisher) Publish(ctx context.Context, reading model.Reading) int {
	m.published = append(m.published, reading)
	return 1
}

type sentMessage struct {
	message, from, to, subject string
}

type MockNotifier struct {
	SendErr error
	sent    []sentMessage
}

func (m *MockNotifier) Send(ctx context.Context, message, from, to, subject string) error {
	m.sent = append(m.sent, sentMessage{message, from, to, subject})
	return m.SendErr
}
