package model

import "errors"

// ErrIncompleteSession is returned by stores asked to persist a session that
// is not usable.
var ErrIncompleteSession = errors.New("session is incomplete")

// Session is an authenticated handle against the vendor API.
type Session struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	AuthToken    string `json:"authentication_token"`
	DeviceSerial string `json:"device_serial"`
}

// Usable reports whether every field needed to issue commands is present.
func (s *Session) Usable() bool {
	return s != nil && s.ID != "" && s.UserID != "" && s.AuthToken != "" && s.DeviceSerial != ""
}
