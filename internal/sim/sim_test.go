// v3
// internal/sim/sim_test.go
package sim

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"homesim/internal/control"
	"homesim/internal/energy"
	"homesim/internal/journal"
	"homesim/internal/models"
	"homesim/internal/storage"
)

type fixture struct {
	state   *State
	journal *journal.Journal
	sensors *storage.SensorLog
	energy  *storage.EnergyLog
}

// newFixture builds a state around a hot room (base 30C) so the AC rule fires
// on every tick unless overridden.
func newFixture(t *testing.T, rooms ...string) *fixture {
	t.Helper()
	if len(rooms) == 0 {
		rooms = []string{"Living Room"}
	}
	dir := t.TempDir()
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	j, err := journal.Open(dir, lg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	sensors, err := storage.OpenSensorLog(dir, lg)
	if err != nil {
		t.Fatalf("open sensor log: %v", err)
	}
	t.Cleanup(func() { sensors.Close() })
	e, err := storage.OpenEnergyLog(dir, lg)
	if err != nil {
		t.Fatalf("open energy log: %v", err)
	}
	st, err := New(rooms, 30.0, 42, 24, j, sensors, e, lg)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	return &fixture{state: st, journal: j, sensors: sensors, energy: e}
}

func TestTickJournalsFlipsOnce(t *testing.T) {
	fx := newFixture(t)
	res, err := fx.state.Tick("Living Room", 10)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.ACState != control.StateCooling || !res.ACChanged {
		t.Fatalf("expected first tick to journal COOLING, got %+v", res)
	}
	res, err = fx.state.Tick("Living Room", 11)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.ACState != control.StateCooling || res.ACChanged {
		t.Fatalf("steady state must not journal again, got %+v", res)
	}
	entries := fx.journal.Entries("Living Room", models.ApplianceAC)
	if len(entries) != 1 {
		t.Fatalf("expected 1 AC journal entry, got %d", len(entries))
	}
}

func TestTickAppendsOneRowPerSensor(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.state.Tick("Living Room", 9); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if fx.sensors.Len() != 3 {
		t.Fatalf("expected 3 sensor rows per tick, got %d", fx.sensors.Len())
	}
	for _, st := range []string{models.SensorTemperature, models.SensorOccupancy, models.SensorLightLevel} {
		if rows := fx.sensors.History("Living Room", st, 50); len(rows) != 1 {
			t.Fatalf("expected 1 %s row, got %d", st, len(rows))
		}
	}
}

func TestTickUnknownRoom(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.state.Tick("Garage", 1); !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom, got %v", err)
	}
}

func TestOverrideClosesEnergyInterval(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.state.Tick("Living Room", 10); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if err := fx.state.Override("Living Room", models.ApplianceAC, control.StateOff); err != nil {
		t.Fatalf("override: %v", err)
	}
	res, err := fx.state.Tick("Living Room", 12)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if res.ACState != control.StateOff || !res.ACChanged {
		t.Fatalf("expected override to journal an OFF flip, got %+v", res)
	}

	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := energy.NewReducer(fx.journal, fx.energy, map[string]float64{models.ApplianceAC: 1.5}, lg)
	kwh, err := r.Compute("Living Room", models.ApplianceAC, fx.state.RunID())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if math.Abs(kwh-3.0) > 1e-9 {
		t.Fatalf("expected 3.0 kWh for the 2h interval, got %v", kwh)
	}
}

func TestTimestampForIsHourlyAndStable(t *testing.T) {
	fx := newFixture(t)
	if d := fx.state.TimestampFor(11).Sub(fx.state.TimestampFor(10)); d != time.Hour {
		t.Fatalf("expected 1h spacing between hours, got %v", d)
	}
	if !fx.state.TimestampFor(5).Equal(fx.state.TimestampFor(5)) {
		t.Fatalf("re-deriving the same hour must be stable")
	}
	for h := 1; h < 24; h++ {
		if !fx.state.TimestampFor(h).After(fx.state.TimestampFor(h - 1)) {
			t.Fatalf("timestamps must increase with hour, broke at %d", h)
		}
	}
}

func TestResetClearsLogsAndRotatesRun(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.state.Tick("Living Room", 10); err != nil {
		t.Fatalf("tick: %v", err)
	}
	before := fx.state.RunID()
	anchorBefore := fx.state.TimestampFor(0)

	if err := fx.state.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	stats := fx.state.Stats()
	for name, n := range stats {
		if n != 0 {
			t.Fatalf("expected %s empty after reset, got %d", name, n)
		}
	}
	if fx.state.RunID() == before {
		t.Fatalf("expected a fresh run id after reset")
	}
	if fx.state.TimestampFor(0).Before(anchorBefore) {
		t.Fatalf("anchor must not move backwards on reset")
	}
}

type captureTransitions struct {
	got []models.Transition
}

func (c *captureTransitions) Publish(tr models.Transition) { c.got = append(c.got, tr) }

func TestPublisherSeesOnlyWrittenTransitions(t *testing.T) {
	fx := newFixture(t)
	sink := &captureTransitions{}
	fx.state.SetTransitionPublisher(sink)

	if _, err := fx.state.Tick("Living Room", 10); err != nil {
		t.Fatalf("tick: %v", err)
	}
	first := len(sink.got)
	if first == 0 {
		t.Fatalf("expected transitions from the first tick")
	}
	if _, err := fx.state.Tick("Living Room", 11); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if len(sink.got) != first {
		t.Fatalf("deduplicated tick must publish nothing, got %d new", len(sink.got)-first)
	}
}

func TestRoomsAreIndependentStreams(t *testing.T) {
	fx := newFixture(t, "Living Room", "Bedroom")
	if _, err := fx.state.Tick("Living Room", 10); err != nil {
		t.Fatalf("tick: %v", err)
	}
	res, err := fx.state.Tick("Bedroom", 10)
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !res.ACChanged {
		t.Fatalf("first flip in a second room must journal independently")
	}
	if len(fx.state.Statuses()) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(fx.state.Statuses()))
	}
}
