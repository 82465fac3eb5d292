// v2
// internal/control/control_test.go
package control

import (
	"errors"
	"testing"

	"homesim/internal/models"
)

func TestEvaluateCoolingThresholdIsStrict(t *testing.T) {
	ac, _ := Evaluate(Conditions{Temperature: 24.0})
	if ac != StateOff {
		t.Fatalf("expected OFF at exactly 24.0, got %s", ac)
	}
	ac, _ = Evaluate(Conditions{Temperature: 24.01})
	if ac != StateCooling {
		t.Fatalf("expected COOLING above 24.0, got %s", ac)
	}
}

func TestEvaluateLightNeedsBothConditions(t *testing.T) {
	cases := []struct {
		name     string
		occupied bool
		lux      int
		want     string
	}{
		{"occupied and dark", true, 299, StateOn},
		{"occupied at threshold", true, 300, StateOff},
		{"empty and dark", false, 100, StateOff},
		{"occupied and bright", true, 800, StateOff},
	}
	for _, tc := range cases {
		_, light := Evaluate(Conditions{Occupied: tc.occupied, LightLevel: tc.lux})
		if light != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, light)
		}
	}
}

func TestEvaluateOverridesWinOverSensors(t *testing.T) {
	ac, light := Evaluate(Conditions{
		Temperature:   30.0,
		Occupied:      true,
		LightLevel:    100,
		ACOverride:    StateOff,
		LightOverride: StateOff,
	})
	if ac != StateOff || light != StateOff {
		t.Fatalf("overrides ignored: ac=%s light=%s", ac, light)
	}
}

func TestRoomOverrideIsStickyUntilCleared(t *testing.T) {
	r := NewRoom("Living Room", 25.0)
	if err := r.SetOverride(models.ApplianceAC, StateOff); err != nil {
		t.Fatalf("set override: %v", err)
	}
	r.ApplyReading(models.SensorSample{Temperature: 35.0})
	for i := 0; i < 3; i++ {
		ac, _ := r.Evaluate()
		if ac != StateOff {
			t.Fatalf("evaluate %d: override not sticky, got %s", i, ac)
		}
	}
	if err := r.SetOverride(models.ApplianceAC, ""); err != nil {
		t.Fatalf("clear override: %v", err)
	}
	ac, _ := r.Evaluate()
	if ac != StateCooling {
		t.Fatalf("expected rules back in control after clear, got %s", ac)
	}
}

func TestRoomOverrideUnknownAppliance(t *testing.T) {
	r := NewRoom("Living Room", 25.0)
	err := r.SetOverride("Toaster", StateOn)
	if !errors.Is(err, ErrUnknownAppliance) {
		t.Fatalf("expected ErrUnknownAppliance, got %v", err)
	}
}

func TestRoomSnapshotReflectsReadingAndStates(t *testing.T) {
	r := NewRoom("Living Room", 25.0)
	r.ApplyReading(models.SensorSample{Temperature: 26.5, Occupied: true, LightLevel: 120})
	r.Evaluate()
	st := r.Snapshot()
	if st.Temperature != 26.5 || !st.Occupied || st.LightLevel != 120 {
		t.Fatalf("snapshot readings wrong: %+v", st)
	}
	if st.ACState != StateCooling || st.LightState != StateOn {
		t.Fatalf("snapshot states wrong: %+v", st)
	}
}
