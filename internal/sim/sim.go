// v4
// internal/sim/sim.go
// Package sim owns the simulation state: the rooms, the synthetic feed, and the
// per-hour tick pipeline that drives journaling.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"homesim/internal/control"
	"homesim/internal/journal"
	"homesim/internal/metrics"
	"homesim/internal/models"
	"homesim/internal/storage"
)

// ErrUnknownRoom is returned when an operation references a room that was not
// configured at startup.
var ErrUnknownRoom = errors.New("unknown room")

// TransitionPublisher receives every journal-worthy transition. Implementations
// must not block the tick path.
type TransitionPublisher interface {
	Publish(t models.Transition)
}

// SamplePublisher receives every raw sensor sample.
type SamplePublisher interface {
	Publish(s models.SensorSample)
}

// State is the simulation root: a fixed set of rooms constructed once at
// process start and passed explicitly to every operation. Ticks for one room
// are serialized by a per-room lock; rooms are independent.
type State struct {
	log     *slog.Logger
	feed    *Feed
	journal *journal.Journal
	sensors *storage.SensorLog
	energy  *storage.EnergyLog

	rooms map[string]*roomSlot
	order []string // room ids in lock-acquisition order

	totalHours int

	mu     sync.RWMutex
	anchor time.Time
	runID  string

	transitions TransitionPublisher
	samples     SamplePublisher
}

type roomSlot struct {
	tick sync.Mutex // serializes the tick pipeline for this room
	room *control.Room
}

// New builds the simulation state. roomIDs must be non-empty.
func New(roomIDs []string, baseTemp float64, feedSeed int64, totalHours int, j *journal.Journal, sensors *storage.SensorLog, energy *storage.EnergyLog, log *slog.Logger) (*State, error) {
	if len(roomIDs) == 0 {
		return nil, errors.New("at least one room is required")
	}
	s := &State{
		log:        log,
		feed:       NewFeed(baseTemp, feedSeed),
		journal:    j,
		sensors:    sensors,
		energy:     energy,
		rooms:      make(map[string]*roomSlot, len(roomIDs)),
		totalHours: totalHours,
		anchor:     time.Now().UTC().Truncate(time.Hour),
		runID:      uuid.NewString(),
	}
	for _, id := range roomIDs {
		if _, dup := s.rooms[id]; dup {
			continue
		}
		s.rooms[id] = &roomSlot{room: control.NewRoom(id, baseTemp)}
		s.order = append(s.order, id)
	}
	return s, nil
}

// SetTransitionPublisher attaches an optional publisher for written transitions.
func (s *State) SetTransitionPublisher(p TransitionPublisher) { s.transitions = p }

// SetSamplePublisher attaches an optional publisher for raw sensor samples.
func (s *State) SetSamplePublisher(p SamplePublisher) { s.samples = p }

// RunID returns the current run identifier.
func (s *State) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// TimestampFor derives the reproducible simulated timestamp for an hour tick:
// the run anchor minus (totalHours - hour) whole hours. Re-ticking the same
// hour yields the same timestamp, keeping replay math stable.
func (s *State) TimestampFor(hour int) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anchor.Add(-time.Duration(s.totalHours-hour) * time.Hour)
}

// TickResult reports what one simulated hour did to a room.
type TickResult struct {
	Hour         int     `json:"hour_simulated"`
	Temperature  float64 `json:"temperature"`
	Occupied     bool    `json:"occupied"`
	LightLevel   int     `json:"light_level"`
	ACState      string  `json:"ac_state"`
	LightState   string  `json:"light_state"`
	ACChanged    bool    `json:"ac_changed"`
	LightChanged bool    `json:"light_changed"`
}

// Tick advances one room by one simulated hour: read the feed, journal the raw
// readings, evaluate the rules, and journal any appliance flips. Ticks for the
// same room must arrive in increasing hour order; this method serializes
// concurrent callers per room but does not reorder them.
func (s *State) Tick(roomID string, hour int) (TickResult, error) {
	slot, ok := s.rooms[roomID]
	if !ok {
		return TickResult{}, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	slot.tick.Lock()
	defer slot.tick.Unlock()

	ts := s.TimestampFor(hour)
	runID := s.RunID()

	sample := s.feed.Read(roomID, hour)
	sample.Timestamp = ts
	slot.room.ApplyReading(sample)

	occupancy := 0.0
	if sample.Occupied {
		occupancy = 1.0
	}
	rows := []models.SensorRow{
		{RoomID: roomID, SensorType: models.SensorTemperature, Value: sample.Temperature, Timestamp: ts},
		{RoomID: roomID, SensorType: models.SensorOccupancy, Value: occupancy, Timestamp: ts},
		{RoomID: roomID, SensorType: models.SensorLightLevel, Value: float64(sample.LightLevel), Timestamp: ts},
	}
	for _, row := range rows {
		if err := s.sensors.Append(row); err != nil {
			return TickResult{}, fmt.Errorf("sensor log: %w", err)
		}
	}
	if s.samples != nil {
		s.samples.Publish(sample)
	}

	acState, lightState := slot.room.Evaluate()

	// On/off mapping follows the appliance semantics: the AC consumes power
	// only while cooling, the lights only while on.
	acWritten, err := s.record(roomID, models.ApplianceAC, acState, acState == control.StateCooling, ts, runID)
	if err != nil {
		return TickResult{}, err
	}
	lightWritten, err := s.record(roomID, models.ApplianceLight, lightState, lightState == control.StateOn, ts, runID)
	if err != nil {
		return TickResult{}, err
	}

	metrics.IncTick(roomID)
	s.log.Info("tick applied", "roomId", roomID, "hour", hour, "ac", acState, "light", lightState)
	return TickResult{
		Hour:         hour,
		Temperature:  sample.Temperature,
		Occupied:     sample.Occupied,
		LightLevel:   sample.LightLevel,
		ACState:      acState,
		LightState:   lightState,
		ACChanged:    acWritten,
		LightChanged: lightWritten,
	}, nil
}

func (s *State) record(roomID, appliance, state string, isOn bool, ts time.Time, runID string) (bool, error) {
	written, err := s.journal.Record(roomID, appliance, state, isOn, ts, runID)
	if err != nil {
		return false, fmt.Errorf("journal %s: %w", appliance, err)
	}
	if written && s.transitions != nil {
		s.transitions.Publish(models.Transition{
			RoomID:    roomID,
			Appliance: appliance,
			State:     state,
			IsOn:      isOn,
			Timestamp: ts,
			RunID:     runID,
		})
	}
	return written, nil
}

// Override pins or clears a manual appliance override for a room.
func (s *State) Override(roomID, appliance, state string) error {
	slot, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	return slot.room.SetOverride(appliance, state)
}

// Room returns the status snapshot for one room.
func (s *State) Room(roomID string) (control.Status, error) {
	slot, ok := s.rooms[roomID]
	if !ok {
		return control.Status{}, fmt.Errorf("%w: %s", ErrUnknownRoom, roomID)
	}
	return slot.room.Snapshot(), nil
}

// Statuses returns snapshots for all rooms keyed by room id.
func (s *State) Statuses() map[string]control.Status {
	out := make(map[string]control.Status, len(s.rooms))
	for id, slot := range s.rooms {
		out[id] = slot.room.Snapshot()
	}
	return out
}

// Reset clears all three logs and rotates the run id and timestamp anchor for a
// fresh simulation run.
func (s *State) Reset() error {
	for _, id := range s.order {
		s.rooms[id].tick.Lock()
	}
	defer func() {
		for _, id := range s.order {
			s.rooms[id].tick.Unlock()
		}
	}()
	if err := s.journal.Reset(); err != nil {
		return err
	}
	if err := s.sensors.Reset(); err != nil {
		return err
	}
	if err := s.energy.Reset(); err != nil {
		return err
	}
	s.mu.Lock()
	s.anchor = time.Now().UTC().Truncate(time.Hour)
	s.runID = uuid.NewString()
	s.mu.Unlock()
	s.log.Info("simulation reset", "runId", s.runID)
	return nil
}

// Stats reports row counts per persisted relation.
func (s *State) Stats() map[string]int {
	return map[string]int{
		"sensor_log":    s.sensors.Len(),
		"appliance_log": s.journal.Len(),
		"energy_log":    s.energy.Len(),
	}
}
