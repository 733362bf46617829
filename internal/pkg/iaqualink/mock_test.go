package iaqualink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

// MockCredentialStore is a hand-rolled credentialStore recording every put.
type MockCredentialStore struct {
	mu     sync.Mutex
	Stored *model.Session
	Puts   []model.Session
	GetErr error
	PutErr error
	OnPut  func()
}

func (m *MockCredentialStore) GetSession(ctx context.Context) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	if m.Stored == nil {
		return nil, nil
	}
	s := *m.Stored
	return &s, nil
}

func (m *MockCredentialStore) PutSession(ctx context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OnPut != nil {
		m.OnPut()
	}
	if m.PutErr != nil {
		return m.PutErr
	}
	s := *session
	m.Stored = &s
	m.Puts = append(m.Puts, s)
	return nil
}

// MockRefresher counts refreshes and hands out sessions in order.
type MockRefresher struct {
	Calls       int
	RefreshFunc func(ctx context.Context) (*model.Session, error)
}

func (m *MockRefresher) Refresh(ctx context.Context) (*model.Session, error) {
	m.Calls++
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return &model.Session{ID: "fresh", UserID: "1", AuthToken: "tok", DeviceSerial: "SERIAL"}, nil
}

func validSession() model.Session {
	return model.Session{ID: "sess-0", UserID: "42", AuthToken: "token-0", DeviceSerial: "SERIAL-1"}
}

func testConfig(srv *httptest.Server) config.IaqualinkConfig {
	return config.IaqualinkConfig{
		Email:       "pool@example.com",
		Password:    "secret",
		ApiKey:      "KEY",
		AuthURL:     srv.URL,
		RealtimeURL: srv.URL,
		Timeout:     5 * time.Second,
	}
}

func testServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}
