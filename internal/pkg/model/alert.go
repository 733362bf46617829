package model

import "time"

type Alert struct {
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	Since    time.Time     `json:"since"` // oldest sample of the heater-active run.
}
