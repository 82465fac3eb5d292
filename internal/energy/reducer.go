// v3
// internal/energy/reducer.go
// Package energy reduces the transition journal into per-appliance kWh figures
// and aggregates the persisted results for reporting.
package energy

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"homesim/internal/journal"
	"homesim/internal/metrics"
	"homesim/internal/models"
	"homesim/internal/storage"
)

// ErrOutOfOrder marks a data-integrity violation: a closed interval computed a
// negative duration even after ordering the entries.
var ErrOutOfOrder = errors.New("journal entries out of order")

// Reducer replays a (room, appliance) journal stream, integrates the closed
// ON/OFF intervals, and persists the resulting energy snapshot.
type Reducer struct {
	journal *journal.Journal
	energy  *storage.EnergyLog
	ratings map[string]float64
	log     *slog.Logger
}

// NewReducer wires the reducer to its journal source and energy sink. Ratings
// map appliance names to kW; unknown appliances rate 0 by design so they
// contribute no energy rather than failing.
func NewReducer(j *journal.Journal, e *storage.EnergyLog, ratings map[string]float64, log *slog.Logger) *Reducer {
	return &Reducer{journal: j, energy: e, ratings: ratings, log: log}
}

// Compute reduces the journal for (room, appliance) to kWh and stores one
// EnergyRecord spanning the consumed entries. An empty journal yields 0 and
// persists nothing. An ON entry left open at the end of the stream contributes
// zero hours; callers close the accounting window by forcing an OFF transition.
func (r *Reducer) Compute(roomID, appliance string, runID string) (float64, error) {
	entries := r.journal.Entries(roomID, appliance)
	if len(entries) == 0 {
		return 0, nil
	}
	// Tolerate unsorted input by ordering; equal timestamps keep append order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	var totalHours float64
	var lastOn time.Time
	var open bool
	for _, e := range entries {
		if e.IsOn {
			// A repeated ON would violate the journal invariant; restart the
			// interval instead of failing.
			lastOn = e.Timestamp
			open = true
			continue
		}
		if !open {
			continue
		}
		d := e.Timestamp.Sub(lastOn)
		if d < 0 {
			return 0, fmt.Errorf("%w: %s/%s at %s", ErrOutOfOrder, roomID, appliance, e.Timestamp)
		}
		totalHours += d.Hours()
		open = false
	}

	kwh := totalHours * r.ratings[appliance]
	rec := models.EnergyRecord{
		RoomID:      roomID,
		Appliance:   appliance,
		KWh:         kwh,
		PeriodStart: entries[0].Timestamp,
		PeriodEnd:   entries[len(entries)-1].Timestamp,
		RunID:       runID,
		ComputedAt:  time.Now().UTC(),
	}
	if err := r.energy.Put(rec); err != nil {
		return 0, err
	}
	metrics.IncReducerRun(appliance)
	r.log.Info("energy computed", "roomId", roomID, "appliance", appliance, "hours", totalHours, "kwh", kwh)
	return kwh, nil
}
