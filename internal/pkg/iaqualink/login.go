package iaqualink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

// Login signs in with the account credentials. The returned session has no
// device serial yet.
func (m *SessionManager) Login(ctx context.Context) (*model.Session, error) {
	u := strings.TrimRight(m.cfg.AuthURL, "/") + signInPath
	res, err := doRequest(ctx, m.httpClient, http.MethodPost, u, signInRequest{
		ApiKey:   m.cfg.ApiKey,
		Email:    m.cfg.Email,
		Password: m.cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuth, err)
	}
	if !res.ok() {
		m.logger.Error("sign in failure", zap.String("url", u), zap.Int("status", res.status), zap.ByteString("body", res.body))
		return nil, newHTTPError(ErrAuth, u, res.status, res.body)
	}

	payload := signInResponse{}
	if err := json.Unmarshal(res.body, &payload); err != nil {
		m.logger.Error("unexpected sign in response", zap.ByteString("body", res.body))
		return nil, fmt.Errorf("%w: decode response: %w", ErrAuth, err)
	}
	session := &model.Session{}
	for key, dst := range map[string]*string{
		signInSessionID: &session.ID,
		signInUserID:    &session.UserID,
		signInToken:     &session.AuthToken,
	} {
		raw, ok := payload[key]
		if !ok || rawText(raw) == "" {
			m.logger.Error("unexpected sign in response", zap.String("missing", key))
			return nil, fmt.Errorf("%w: response missing %s", ErrAuth, key)
		}
		*dst = rawText(raw)
	}

	m.logger.Info("logged in", zap.String("session_id", session.ID), zap.String("user_id", session.UserID))
	return session, nil
}
