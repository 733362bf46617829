package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

type sensor struct {
	name        string
	unit        string
	deviceClass string
	value       func(model.Reading) (string, bool)
}

func temperature(get func(model.Reading) *int) func(model.Reading) (string, bool) {
	return func(r model.Reading) (string, bool) {
		v := get(r)
		if v == nil {
			return "", false
		}
		return strconv.Itoa(*v), true
	}
}

var sensors = []sensor{
	{name: "Air Temperature", unit: "°F", deviceClass: "temperature", value: temperature(func(r model.Reading) *int { return r.AirTemp })},
	{name: "Pool Temperature", unit: "°F", deviceClass: "temperature", value: temperature(func(r model.Reading) *int { return r.PoolTemp })},
	{name: "Spa Temperature", unit: "°F", deviceClass: "temperature", value: temperature(func(r model.Reading) *int { return r.SpaTemp })},
	{name: "Heater Setpoint", value: func(r model.Reading) (string, bool) {
		return strconv.Itoa(r.HeaterSetpoint), true
	}},
	{name: "Heater Active", value: func(r model.Reading) (string, bool) {
		return strconv.FormatBool(r.HeaterActive), true
	}},
	{name: "Status", value: func(r model.Reading) (string, bool) {
		return r.Status, r.Status != ""
	}},
}

func sensorID(name string) string {
	return strings.ReplaceAll(slug.Make(deviceName+" "+name), "-", "_")
}

func baseTopic(name string) string {
	return fmt.Sprintf("%s/%s", topicPrefix, sensorID(name))
}

func registerMsg(s sensor) model.RegisterMessage {
	return model.RegisterMessage{
		Tilda:             baseTopic(s.name),
		Name:              s.name,
		ID:                sensorID(s.name),
		StateTopic:        "~/state",
		ValueTemplate:     "{{ value_json.value }}",
		UnitOfMeasurement: s.unit,
		DeviceClass:       s.deviceClass,
		Device: model.RegisterDevice{
			Name:         deviceName,
			Identifiers:  []string{sensorID("")},
			Model:        deviceModel,
			Manufacturer: manufacturer,
		},
	}
}

// RegisterSensors publishes retained discovery configs for every sensor.
func (s *service) RegisterSensors() error {
	if s.registered {
		return nil
	}
	for _, sn := range sensors {
		payload, err := json.Marshal(registerMsg(sn))
		if err != nil {
			return err
		}
		if err := s.publish(baseTopic(sn.name)+"/config", true, payload); err != nil {
			return err
		}
	}
	s.registered = true
	return nil
}

// PublishReading writes state for every sensor whose value changed since
// the last publish. Absent temperatures are skipped.
func (s *service) PublishReading(ctx context.Context, reading model.Reading) error {
	if err := s.RegisterSensors(); err != nil {
		return err
	}
	for _, sn := range sensors {
		value, ok := sn.value(reading)
		if !ok || !s.shouldUpdate(sn.name, value) {
			continue
		}
		payload, err := json.Marshal(model.SensorState{Value: value})
		if err != nil {
			return err
		}
		if err := s.publish(baseTopic(sn.name)+"/state", false, payload); err != nil {
			return err
		}
		s.lastValues[sn.name] = value
	}
	return nil
}

func (s *service) shouldUpdate(name, value string) bool {
	last, ok := s.lastValues[name]
	return !ok || last != value
}
