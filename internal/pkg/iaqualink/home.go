package iaqualink

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

const (
	keyStatus       = "status"
	keyResponse     = "response"
	keyAirTemp      = "air_temp"
	keyPoolTemp     = "pool_temp"
	keySpaTemp      = "spa_temp"
	keySpaHeater    = "spa_heater"
	keyPoolHeater   = "pool_heater"
	keySpaSetPoint  = "spa_set_point"
	keyPoolSetPoint = "pool_set_point"
)

// FlattenScreen merges a screen's list of single key objects into one map.
// An object in place of the list is accepted as already flat.
func FlattenScreen(body []byte, screen string) (map[string]string, error) {
	payload := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	raw, ok := payload[screen]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrFormat, screen)
	}

	entries := []map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		flat := map[string]json.RawMessage{}
		if err := json.Unmarshal(raw, &flat); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFormat, screen, err)
		}
		entries = append(entries, flat)
	}

	items := make(map[string]string, len(entries))
	for _, entry := range entries {
		for k, v := range entry {
			items[k] = rawText(v)
		}
	}
	return items, nil
}

// Normalize decodes a flattened home screen into a reading.
//
// A controller that is not online yields a degraded reading with no
// temperatures and the heater off; that is an expected state, not an error.
func Normalize(items map[string]string) (model.Reading, error) {
	status := items[keyStatus]
	if status != model.StatusOnline {
		zap.L().Warn("failed to get temps", zap.String("status", status), zap.String("response", items[keyResponse]))
		return model.Reading{Status: status}, nil
	}

	heater, err := decodeHeater(items)
	if err != nil {
		return model.Reading{}, err
	}

	reading := model.Reading{
		HeaterSetpoint: heater,
		HeaterActive:   heater != 0,
		Status:         status,
	}
	for key, dst := range map[string]**int{
		keyAirTemp:  &reading.AirTemp,
		keyPoolTemp: &reading.PoolTemp,
		keySpaTemp:  &reading.SpaTemp,
	} {
		if *dst, err = parseTemp(items[key]); err != nil {
			return model.Reading{}, fmt.Errorf("%s: %w", key, err)
		}
	}
	return reading, nil
}

// decodeHeater returns the set point of whichever zone is heating, spa first.
// Any heater state outside off/heating/enabled is rejected.
func decodeHeater(items map[string]string) (int, error) {
	spa, pool := items[keySpaHeater], items[keyPoolHeater]
	switch {
	case spa == heaterHeating:
		return parseSetPoint(keySpaSetPoint, items[keySpaSetPoint])
	case pool == heaterHeating:
		return parseSetPoint(keyPoolSetPoint, items[keyPoolSetPoint])
	case spa != heaterOff && spa != heaterEnabled:
		return 0, fmt.Errorf("%w: unexpected %s %q", ErrFormat, keySpaHeater, spa)
	case pool != heaterOff && pool != heaterEnabled:
		return 0, fmt.Errorf("%w: unexpected %s %q", ErrFormat, keyPoolHeater, pool)
	}
	return 0, nil
}

func parseSetPoint(key, value string) (int, error) {
	v, err := parseLeadingInt(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

// parseTemp returns nil for an absent sensor so it is not confused with zero degrees.
func parseTemp(value string) (*int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	v, err := parseLeadingInt(value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseLeadingInt reads the integer prefix of value, so "78.5" is 78.
func parseLeadingInt(value string) (int, error) {
	s := strings.TrimSpace(value)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("%w: not a number %q", ErrFormat, value)
	}
	return strconv.Atoi(s[:end])
}
