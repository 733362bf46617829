package alert

import (
	"fmt"
	"strings"
	"time"
)

var units = []struct {
	name string
	size time.Duration
}{
	{"day", 24 * time.Hour},
	{"hour", time.Hour},
	{"minute", time.Minute},
	{"second", time.Second},
}

// HumanizeDuration spells d out largest unit first, e.g. "1 hour, 5 minutes".
// Units that are zero are skipped; anything under a second is dropped.
func HumanizeDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	parts := []string{}
	for _, u := range units {
		n := d / u.size
		if n == 0 {
			continue
		}
		d -= n * u.size
		name := u.name
		if n != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, name))
	}
	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}
