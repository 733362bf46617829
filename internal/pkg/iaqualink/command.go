package iaqualink

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

// commandAttempts is the fixed budget per command: the first try and one
// retry after a session refresh.
const commandAttempts = 2

type sessionRefresher interface {
	Refresh(ctx context.Context) (*model.Session, error)
}

// CommandClient issues commands against the realtime API.
type CommandClient struct {
	baseURL    string
	httpClient *http.Client
	sessions   sessionRefresher
	logger     *zap.Logger
}

func NewCommandClient(cfg config.IaqualinkConfig, httpClient *http.Client, sessions sessionRefresher) *CommandClient {
	return &CommandClient{
		baseURL:    strings.TrimRight(cfg.RealtimeURL, "/"),
		httpClient: httpClient,
		sessions:   sessions,
		logger:     zap.L(),
	}
}

// SendCommand runs cmd and returns the raw body.
//
// The realtime API answers a stale session id with an empty 200 rather than
// an auth error, so an empty body triggers one session refresh and a retry of
// the same command. session is replaced in place with the refreshed one. A
// second empty body fails with ErrRepeatedEmptySession. Non-2xx responses are
// never retried.
func (c *CommandClient) SendCommand(ctx context.Context, session *model.Session, cmd Command) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		body, err := c.send(ctx, session, cmd)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(body)) > 0 {
			return body, nil
		}
		if attempt >= commandAttempts {
			c.logger.Error("repeated empty response", zap.String("command", cmd.String()), zap.String("session_id", session.ID))
			return nil, fmt.Errorf("%w: command %s", ErrRepeatedEmptySession, cmd)
		}

		oldSessionID := session.ID
		fresh, err := c.sessions.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		*session = *fresh
		c.logger.Warn("empty response, retrying with new session",
			zap.String("command", cmd.String()),
			zap.String("old_session_id", oldSessionID),
			zap.String("session_id", session.ID),
		)
	}
}

func (c *CommandClient) send(ctx context.Context, session *model.Session, cmd Command) ([]byte, error) {
	q := url.Values{}
	q.Set("actionID", "command")
	q.Set("command", cmd.String())
	q.Set("serial", session.DeviceSerial)
	q.Set("sessionID", session.ID)
	u := c.baseURL + sessionPath + "?" + q.Encode()

	res, err := doRequest(ctx, c.httpClient, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCommand, cmd, err)
	}
	if !res.ok() {
		c.logger.Error("command failure", zap.String("url", redact(u)), zap.Int("status", res.status), zap.ByteString("body", res.body))
		return nil, newHTTPError(ErrCommand, redact(u), res.status, res.body)
	}
	return res.body, nil
}

// GetHome fetches the home screen and normalizes it into a reading. The
// timestamp is left for the caller to stamp.
func (c *CommandClient) GetHome(ctx context.Context, session *model.Session) (model.Reading, error) {
	body, err := c.SendCommand(ctx, session, GetHome)
	if err != nil {
		return model.Reading{}, err
	}
	items, err := FlattenScreen(body, screens[GetHome])
	if err != nil {
		c.logger.Error("unexpected home response", zap.ByteString("body", body))
		return model.Reading{}, err
	}
	return Normalize(items)
}

// GetDevices fetches the flattened device screen (aux circuits, pumps, lights).
func (c *CommandClient) GetDevices(ctx context.Context, session *model.Session) (map[string]string, error) {
	body, err := c.SendCommand(ctx, session, GetDevices)
	if err != nil {
		return nil, err
	}
	return FlattenScreen(body, screens[GetDevices])
}
