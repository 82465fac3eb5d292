// v3
// internal/control/control.go
// Package control holds per-room appliance state and the rule engine that maps
// sensor readings and manual overrides to appliance states.
package control

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"homesim/internal/models"
)

// Appliance state labels produced by the rules.
const (
	StateOff     = "OFF"
	StateOn      = "ON"
	StateCooling = "COOLING"
)

// Rule thresholds. Both comparisons are strict: 24.0 exactly keeps the AC off,
// 300 exactly keeps the lights off.
const (
	coolingThresholdC = 24.0
	lightLevelDarkLux = 300
)

// ErrUnknownAppliance is returned when an override names an appliance the room
// does not own.
var ErrUnknownAppliance = errors.New("unknown appliance")

// Conditions is the input to the pure rule evaluation: the latest readings plus
// any sticky overrides (empty string means no override).
type Conditions struct {
	Temperature   float64
	Occupied      bool
	LightLevel    int
	ACOverride    string
	LightOverride string
}

// Evaluate decides AC and Light states from the conditions. It is pure and
// deterministic; callers persist the result and journal transitions.
func Evaluate(c Conditions) (acState, lightState string) {
	if c.ACOverride != "" {
		acState = c.ACOverride
	} else if c.Temperature > coolingThresholdC {
		acState = StateCooling
	} else {
		acState = StateOff
	}
	if c.LightOverride != "" {
		lightState = c.LightOverride
	} else if c.Occupied && c.LightLevel < lightLevelDarkLux {
		lightState = StateOn
	} else {
		lightState = StateOff
	}
	return acState, lightState
}

// Room owns the mutable state of one simulated room: the latest sensed values,
// the current appliance states, and the manual overrides. Overrides persist
// across hours until explicitly cleared.
type Room struct {
	mu sync.Mutex

	id            string
	temperature   float64
	occupied      bool
	lightLevel    int
	acState       string
	lightState    string
	acOverride    string
	lightOverride string
}

// NewRoom creates a room with both appliances off.
func NewRoom(id string, baseTemp float64) *Room {
	return &Room{
		id:          id,
		temperature: baseTemp,
		lightLevel:  500,
		acState:     StateOff,
		lightState:  StateOff,
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// ApplyReading stores the latest sensor tuple.
func (r *Room) ApplyReading(s models.SensorSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.temperature = s.Temperature
	r.occupied = s.Occupied
	r.lightLevel = s.LightLevel
}

// Evaluate runs the rules against the current readings and overrides, stores the
// resulting appliance states, and returns them.
func (r *Room) Evaluate() (acState, lightState string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acState, lightState = Evaluate(Conditions{
		Temperature:   r.temperature,
		Occupied:      r.occupied,
		LightLevel:    r.lightLevel,
		ACOverride:    r.acOverride,
		LightOverride: r.lightOverride,
	})
	r.acState = acState
	r.lightState = lightState
	return acState, lightState
}

// SetOverride pins an appliance to the given state; an empty state clears the
// override so the rules take back control on the next evaluation.
func (r *Room) SetOverride(appliance, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case strings.EqualFold(appliance, models.ApplianceAC):
		r.acOverride = state
	case strings.EqualFold(appliance, models.ApplianceLight):
		r.lightOverride = state
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAppliance, appliance)
	}
	return nil
}

// Status is a consistent snapshot of the room for reporting.
type Status struct {
	RoomID        string  `json:"room_id"`
	Temperature   float64 `json:"temperature"`
	Occupied      bool    `json:"occupied"`
	LightLevel    int     `json:"light_level"`
	ACState       string  `json:"ac_state"`
	LightState    string  `json:"light_state"`
	ACOverride    string  `json:"manual_ac_override,omitempty"`
	LightOverride string  `json:"manual_light_override,omitempty"`
}

// Snapshot returns the current room status.
func (r *Room) Snapshot() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		RoomID:        r.id,
		Temperature:   r.temperature,
		Occupied:      r.occupied,
		LightLevel:    r.lightLevel,
		ACState:       r.acState,
		LightState:    r.lightState,
		ACOverride:    r.acOverride,
		LightOverride: r.lightOverride,
	}
}
