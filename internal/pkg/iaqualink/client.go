package iaqualink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
)

// maxBody bounds any single response read from the vendor API.
const maxBody = 4 << 20

// NewHTTPClient returns the client shared by the session manager and command client.
func NewHTTPClient(cfg config.IaqualinkConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func doRequest(ctx context.Context, c *http.Client, method, rawURL string, body any) (response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return response{}, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}
	return response{status: res.StatusCode, body: data}, nil
}

// redact masks credentials in a request url so it can be logged.
func redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	q := parsed.Query()
	for _, k := range []string{"api_key", "authentication_token", "sessionID"} {
		if q.Has(k) {
			q.Set(k, "xxxxx")
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
