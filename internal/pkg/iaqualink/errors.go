package iaqualink

import (
	"errors"
	"fmt"
)

var (
	ErrAuth                 = errors.New("sign in failed")
	ErrDeviceLookup         = errors.New("device lookup failed")
	ErrCommand              = errors.New("command failed")
	ErrRepeatedEmptySession = errors.New("repeated empty response after session refresh")
	ErrFormat               = errors.New("unexpected payload format")
)

// maxErrorBody caps how much of an upstream body is kept on an HTTPError.
const maxErrorBody = 1 << 10

// HTTPError is a non-2xx response from the vendor API. It unwraps to Kind.
type HTTPError struct {
	Kind       error
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%v: %s returned HTTP %d: %s", e.Kind, e.URL, e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

// IsStatus returns true if err wraps an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

func newHTTPError(kind error, url string, status int, body []byte) *HTTPError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &HTTPError{Kind: kind, URL: url, StatusCode: status, Body: string(body)}
}
