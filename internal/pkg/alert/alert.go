package alert

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

const (
	DefaultThreshold = time.Hour
	DefaultWindow    = 120 // 10 hours of 5 minute samples.
)

// Detector watches for a heater that has been running longer than Threshold.
type Detector struct {
	threshold       time.Duration
	window          int
	suppressRepeats bool
	lastRunStart    time.Time
	logger          *zap.Logger
}

func New(cfg config.AlertConfig) *Detector {
	d := &Detector{
		threshold:       cfg.Threshold,
		window:          cfg.Window,
		suppressRepeats: cfg.SuppressRepeats,
		logger:          zap.L(),
	}
	if d.threshold <= 0 {
		d.threshold = DefaultThreshold
	}
	if d.window <= 0 {
		d.window = DefaultWindow
	}
	return d
}

// Window is the number of most recent readings Check expects.
func (d *Detector) Window() int {
	return d.window
}

// Check inspects newest-first readings and returns an alert when the heater
// has been on for longer than the threshold, or nil.
//
// Without suppression the alert fires on every check for as long as the run
// continues. With suppression only the first check of a run fires.
func (d *Detector) Check(recent model.Readings) *model.Alert {
	if len(recent) > d.window {
		recent = recent[:d.window]
	}
	elapsed, since, ok := HeaterRun(recent)
	if !ok {
		d.lastRunStart = time.Time{}
		return nil
	}
	d.logger.Debug("heater running", zap.Duration("elapsed", elapsed), zap.Time("since", since))
	if elapsed <= d.threshold {
		return nil
	}
	if d.suppressRepeats {
		if d.alerted(recent, since) {
			d.logger.Debug("alert suppressed", zap.Time("since", since), zap.Time("run_start", d.lastRunStart))
			return nil
		}
		d.lastRunStart = since
	}

	return &model.Alert{
		Message:  fmt.Sprintf("The propane heater has been on for longer than %s.", HumanizeDuration(elapsed)),
		Duration: elapsed,
		Since:    since,
	}
}

// alerted reports whether the run ending at recent[0] was already alerted on.
// A run longer than the window has no inactive reading in view and its
// visible start slides forward each check, so it stays the alerted run until
// an inactive reading is seen.
func (d *Detector) alerted(recent model.Readings, since time.Time) bool {
	if d.lastRunStart.IsZero() {
		return false
	}
	if d.lastRunStart.Equal(since) {
		return true
	}
	fillsWindow := !lo.ContainsBy(recent, func(r model.Reading) bool { return !r.HeaterActive })
	return fillsWindow && since.After(d.lastRunStart)
}

// HeaterRun measures the run of active readings at the head of a newest-first
// sequence. It returns the time between the newest and the oldest reading of
// the run and that oldest reading's timestamp. ok is false when the newest
// reading has the heater off.
func HeaterRun(recent model.Readings) (elapsed time.Duration, since time.Time, ok bool) {
	if len(recent) == 0 || !recent[0].HeaterActive {
		return 0, time.Time{}, false
	}
	_, end, found := lo.FindIndexOf(recent, func(r model.Reading) bool {
		return !r.HeaterActive
	})
	if !found {
		end = len(recent)
	}
	last := recent[end-1]
	return recent[0].Timestamp.Sub(last.Timestamp), last.Timestamp, true
}
