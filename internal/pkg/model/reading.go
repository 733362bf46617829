package model

import "time"

const StatusOnline = "Online"

// Reading is one normalized sample from the pool controller.
type Reading struct {
	Timestamp      time.Time `json:"timestamp"`
	AirTemp        *int      `json:"air"`
	PoolTemp       *int      `json:"pool"`
	SpaTemp        *int      `json:"spa"`
	HeaterSetpoint int       `json:"heater"`    // 0 unless a heater is actively heating.
	HeaterActive   bool      `json:"heater_on"` // derived from HeaterSetpoint at decode time.
	Status         string    `json:"status"`
}

type Readings []Reading

// Degraded reports whether the controller was not online when the sample was taken.
func (r Reading) Degraded() bool {
	return r.Status != StatusOnline
}
