package iaqualink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

// DiscoverDevice returns the serial of the first controller on the account.
func (m *SessionManager) DiscoverDevice(ctx context.Context, session *model.Session) (string, error) {
	q := url.Values{}
	q.Set("api_key", m.cfg.ApiKey)
	q.Set("authentication_token", session.AuthToken)
	q.Set("user_id", session.UserID)
	u := strings.TrimRight(m.cfg.AuthURL, "/") + devicesPath + "?" + q.Encode()

	res, err := doRequest(ctx, m.httpClient, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDeviceLookup, err)
	}
	if !res.ok() {
		m.logger.Error("devices failure", zap.String("url", redact(u)), zap.Int("status", res.status), zap.ByteString("body", res.body))
		return "", newHTTPError(ErrDeviceLookup, redact(u), res.status, res.body)
	}

	devices := deviceListResponse{}
	if err := json.Unmarshal(res.body, &devices); err != nil {
		m.logger.Error("unexpected devices response", zap.ByteString("body", res.body))
		return "", fmt.Errorf("%w: decode response: %w", ErrDeviceLookup, err)
	}
	if len(devices) == 0 {
		m.logger.Error("unexpected devices response", zap.ByteString("body", res.body))
		return "", fmt.Errorf("%w: no devices on account", ErrDeviceLookup)
	}
	serial := rawText(devices[0][deviceSerial])
	if serial == "" {
		m.logger.Error("unexpected devices response", zap.ByteString("body", res.body))
		return "", fmt.Errorf("%w: first device has no %s", ErrDeviceLookup, deviceSerial)
	}

	m.logger.Debug("detected device", zap.String("serial", serial), zap.Int("device_count", len(devices)))
	return serial, nil
}
