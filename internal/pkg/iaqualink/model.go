package iaqualink

import (
	"bytes"
	"encoding/json"
)

type signInRequest struct {
	ApiKey   string `json:"api_key"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signInResponse fields are kept raw; the user id arrives as a number,
// everything else as a string, and presence has to be checked per key.
type signInResponse map[string]json.RawMessage

const (
	signInSessionID = "session_id"
	signInUserID    = "id"
	signInToken     = "authentication_token"
	deviceSerial    = "serial_number"
)

type deviceListResponse []map[string]json.RawMessage

// rawText renders a json scalar as plain text: strings are unquoted, null is
// empty and anything else keeps its json form.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
