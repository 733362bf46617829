package iaqualink

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

// credentialStore holds the single live session. GetSession returns nil, nil
// when nothing is stored.
type credentialStore interface {
	GetSession(ctx context.Context) (*model.Session, error)
	PutSession(ctx context.Context, session *model.Session) error
}

// SessionManager owns login, device discovery and session persistence.
type SessionManager struct {
	cfg        config.IaqualinkConfig
	httpClient *http.Client
	store      credentialStore
	logger     *zap.Logger
}

func NewSessionManager(cfg config.IaqualinkConfig, httpClient *http.Client, store credentialStore) *SessionManager {
	return &SessionManager{
		cfg:        cfg,
		httpClient: httpClient,
		store:      store,
		logger:     zap.L(), // returns the global logger.
	}
}

// Acquire returns the stored session, signing in only when there is none.
// A stored session is not checked upstream; the command client notices a dead
// one and calls Refresh.
func (m *SessionManager) Acquire(ctx context.Context) (*model.Session, error) {
	session, err := m.store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.Usable() {
		return session, nil
	}
	return m.Refresh(ctx)
}

// Refresh signs in again, discovers the device and overwrites the stored session.
func (m *SessionManager) Refresh(ctx context.Context) (*model.Session, error) {
	session, err := m.Login(ctx)
	if err != nil {
		return nil, err
	}
	serial, err := m.DiscoverDevice(ctx, session)
	if err != nil {
		return nil, err
	}
	session.DeviceSerial = serial

	if err := m.store.PutSession(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return session, nil
}
