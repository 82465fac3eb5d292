// v2
// internal/energy/aggregator.go
package energy

import (
	"math"

	"homesim/internal/models"
	"homesim/internal/storage"
)

// Aggregator sums the persisted energy snapshots and compares them against a
// fixed reporting baseline.
type Aggregator struct {
	energy   *storage.EnergyLog
	baseline float64
}

// NewAggregator builds an aggregator over the energy log. baseline is the total
// reference consumption (e.g. a day of continuous AC plus lighting).
func NewAggregator(e *storage.EnergyLog, baseline float64) *Aggregator {
	return &Aggregator{energy: e, baseline: baseline}
}

// Summarize returns the total and the per-appliance breakdown over all current
// energy records.
func (a *Aggregator) Summarize() models.EnergySummary {
	out := models.EnergySummary{Breakdown: map[string]float64{}}
	for _, rec := range a.energy.All() {
		out.TotalKWh += rec.KWh
		out.Breakdown[rec.Appliance] += rec.KWh
	}
	out.TotalKWh = round2(out.TotalKWh)
	for k, v := range out.Breakdown {
		out.Breakdown[k] = round2(v)
	}
	return out
}

// Analyze compares a summary against the baseline. A zero baseline yields a
// zero savings percentage instead of dividing by zero.
func (a *Aggregator) Analyze(sum models.EnergySummary) models.EnergyAnalysis {
	saved := a.baseline - sum.TotalKWh
	pct := 0.0
	if a.baseline > 0 {
		pct = saved / a.baseline * 100
	}
	return models.EnergyAnalysis{
		BaselineKWh:       a.baseline,
		ActualKWh:         sum.TotalKWh,
		SavedKWh:          round2(saved),
		SavingsPercentage: round1(pct),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
