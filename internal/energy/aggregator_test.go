// v2
// internal/energy/aggregator_test.go
package energy

import (
	"testing"

	"homesim/internal/models"
	"homesim/internal/storage"
)

func newTestEnergyLog(t *testing.T) *storage.EnergyLog {
	t.Helper()
	e, err := storage.OpenEnergyLog(t.TempDir(), discard())
	if err != nil {
		t.Fatalf("open energy log: %v", err)
	}
	return e
}

func TestSummarizeTotalsAndBreakdown(t *testing.T) {
	e := newTestEnergyLog(t)
	put(t, e, "Living Room", models.ApplianceAC, 9.0)
	put(t, e, "Living Room", models.ApplianceLight, 0.24)

	sum := NewAggregator(e, 36.72).Summarize()
	if sum.TotalKWh != 9.24 {
		t.Fatalf("expected total 9.24, got %v", sum.TotalKWh)
	}
	if sum.Breakdown[models.ApplianceAC] != 9.0 || sum.Breakdown[models.ApplianceLight] != 0.24 {
		t.Fatalf("wrong breakdown: %v", sum.Breakdown)
	}
}

func TestSummarizeEmptyLog(t *testing.T) {
	sum := NewAggregator(newTestEnergyLog(t), 36.72).Summarize()
	if sum.TotalKWh != 0 || len(sum.Breakdown) != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}

func TestSummarizeMergesRoomsPerAppliance(t *testing.T) {
	e := newTestEnergyLog(t)
	put(t, e, "Living Room", models.ApplianceAC, 4.5)
	put(t, e, "Bedroom", models.ApplianceAC, 3.0)

	sum := NewAggregator(e, 36.72).Summarize()
	if sum.Breakdown[models.ApplianceAC] != 7.5 {
		t.Fatalf("expected AC breakdown 7.5 across rooms, got %v", sum.Breakdown)
	}
}

func TestAnalyzeAgainstBaseline(t *testing.T) {
	e := newTestEnergyLog(t)
	put(t, e, "Living Room", models.ApplianceAC, 9.0)
	put(t, e, "Living Room", models.ApplianceLight, 0.24)

	a := NewAggregator(e, 36.72)
	an := a.Analyze(a.Summarize())
	if an.BaselineKWh != 36.72 || an.ActualKWh != 9.24 {
		t.Fatalf("wrong analysis inputs: %+v", an)
	}
	if an.SavedKWh != 27.48 {
		t.Fatalf("expected 27.48 saved, got %v", an.SavedKWh)
	}
	if an.SavingsPercentage != 74.8 {
		t.Fatalf("expected 74.8%% savings, got %v", an.SavingsPercentage)
	}
}

func TestAnalyzeZeroBaseline(t *testing.T) {
	e := newTestEnergyLog(t)
	put(t, e, "Living Room", models.ApplianceAC, 5.0)

	a := NewAggregator(e, 0)
	an := a.Analyze(a.Summarize())
	if an.SavingsPercentage != 0 {
		t.Fatalf("zero baseline must yield 0%%, got %v", an.SavingsPercentage)
	}
	if an.SavedKWh != -5.0 {
		t.Fatalf("expected saved -5.0, got %v", an.SavedKWh)
	}
}

func put(t *testing.T, e *storage.EnergyLog, room, app string, kwh float64) {
	t.Helper()
	if err := e.Put(models.EnergyRecord{RoomID: room, Appliance: app, KWh: kwh, RunID: "run1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
}
