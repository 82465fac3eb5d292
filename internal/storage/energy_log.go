// v2
// internal/storage/energy_log.go
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"homesim/internal/models"
)

type energyKey struct {
	room      string
	appliance string
}

// EnergyLog persists the current computed-energy snapshot per (room, appliance).
// Put replaces any prior record for the same pair, so re-running the reducer
// never inflates downstream totals. The file is rewritten atomically on change.
type EnergyLog struct {
	mu      sync.RWMutex
	path    string
	log     *slog.Logger
	records map[energyKey]models.EnergyRecord
}

// OpenEnergyLog creates or loads the energy log file.
func OpenEnergyLog(dir string, log *slog.Logger) (*EnergyLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	e := &EnergyLog{
		path:    filepath.Join(dir, "energy_log.jsonl"),
		log:     log,
		records: make(map[energyKey]models.EnergyRecord),
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *EnergyLog) load() error {
	f, err := os.Open(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open energy log: %w", err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r models.EnergyRecord
		if err := json.Unmarshal(line, &r); err != nil {
			e.log.Warn("skipping bad energy record", "err", err)
			continue
		}
		// Later lines win, which preserves snapshot semantics for files written
		// by older append-only versions.
		e.records[energyKey{r.RoomID, r.Appliance}] = r
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	e.log.Info("energy log loaded", "path", e.path, "records", len(e.records))
	return nil
}

// Put stores the record as the current snapshot for its (room, appliance) pair.
func (e *EnergyLog) Put(r models.EnergyRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	prev := e.records
	next := make(map[energyKey]models.EnergyRecord, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	next[energyKey{r.RoomID, r.Appliance}] = r
	if err := e.rewrite(next); err != nil {
		return err
	}
	e.records = next
	e.log.Info("energy record stored", "roomId", r.RoomID, "appliance", r.Appliance, "kwh", r.KWh)
	return nil
}

// All returns the current records sorted by room then appliance.
func (e *EnergyLog) All() []models.EnergyRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.EnergyRecord, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RoomID != out[j].RoomID {
			return out[i].RoomID < out[j].RoomID
		}
		return out[i].Appliance < out[j].Appliance
	})
	return out
}

// Len reports the number of current records.
func (e *EnergyLog) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

// Reset drops every record and removes the backing file content.
func (e *EnergyLog) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	empty := make(map[energyKey]models.EnergyRecord)
	if err := e.rewrite(empty); err != nil {
		return err
	}
	e.records = empty
	e.log.Info("energy log reset", "path", e.path)
	return nil
}

// rewrite writes all records to a temp file and renames it over the log so a
// crash never leaves a half-written snapshot.
func (e *EnergyLog) rewrite(records map[energyKey]models.EnergyRecord) error {
	tmp := e.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open temp energy log: %w", err)
	}
	keys := make([]energyKey, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].room != keys[j].room {
			return keys[i].room < keys[j].room
		}
		return keys[i].appliance < keys[j].appliance
	})
	for _, k := range keys {
		enc, err := json.Marshal(records[k])
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.Write(append(enc, '\n')); err != nil {
			f.Close()
			return fmt.Errorf("write energy log: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, e.path); err != nil {
		return fmt.Errorf("replace energy log: %w", err)
	}
	return nil
}
