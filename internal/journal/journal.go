// v3
// internal/journal/journal.go
// Package journal implements the appliance transition journal: an append-only,
// de-duplicating log backed by a JSONL file with an in-memory index. The journal
// stores only flip events; a record whose on/off flag matches the most recent
// entry for the same (room, appliance) stream is discarded at write time.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"homesim/internal/metrics"
	"homesim/internal/models"
)

type key struct {
	room      string
	appliance string
}

// Journal is safe for concurrent use. Writes are serialized under the lock and
// each append is flushed and synced before the entry becomes visible, so a
// reducer read sees either none or all of a tick's writes.
type Journal struct {
	mu    sync.RWMutex
	path  string
	log   *slog.Logger
	file  *os.File
	index map[key][]models.JournalEntry
}

// Open creates or loads the journal file and rebuilds the in-memory index.
func Open(dir string, log *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	path := filepath.Join(dir, "appliance_log.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := &Journal{path: path, log: log, file: f, index: make(map[key][]models.JournalEntry)}
	if err := j.load(); err != nil {
		f.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) load() error {
	if _, err := j.file.Seek(0, 0); err != nil {
		return err
	}
	scanner := bufio.NewScanner(j.file)
	var loaded, skipped int
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e models.JournalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			skipped++
			j.log.Warn("skipping bad journal record", "err", err)
			continue
		}
		k := key{e.RoomID, e.Appliance}
		j.index[k] = append(j.index[k], e)
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	j.log.Info("journal loaded", "path", j.path, "entries", loaded, "skipped", skipped)
	return nil
}

// Record appends a transition unless it repeats the on/off flag of the most
// recent entry for the same (room, appliance). It reports whether the entry was
// written. Timestamps within one stream must be non-decreasing; the caller owns
// that ordering.
func (j *Journal) Record(roomID, appliance, state string, isOn bool, ts time.Time, runID string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	k := key{roomID, appliance}
	if prev := j.index[k]; len(prev) > 0 && prev[len(prev)-1].IsOn == isOn {
		metrics.IncJournalSkip(appliance)
		return false, nil
	}
	e := models.JournalEntry{
		RoomID:    roomID,
		Appliance: appliance,
		State:     state,
		IsOn:      isOn,
		Timestamp: ts.UTC(),
		RunID:     runID,
	}
	enc, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	if _, err := j.file.Write(append(enc, '\n')); err != nil {
		return false, fmt.Errorf("journal append: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return false, fmt.Errorf("journal sync: %w", err)
	}
	j.index[k] = append(j.index[k], e)
	metrics.IncJournalWrite(appliance)
	j.log.Info("transition journaled", "roomId", roomID, "appliance", appliance, "state", state, "isOn", isOn, "ts", e.Timestamp)
	return true, nil
}

// Entries returns a copy of all entries for the (room, appliance) stream in
// stored (append) order.
func (j *Journal) Entries(roomID, appliance string) []models.JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	src := j.index[key{roomID, appliance}]
	out := make([]models.JournalEntry, len(src))
	copy(out, src)
	return out
}

// Len reports the total number of journaled entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	n := 0
	for _, v := range j.index {
		n += len(v)
	}
	return n
}

// Reset clears every entry and truncates the backing file. It is the only
// deletion path; used to start a fresh run.
func (j *Journal) Reset() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.file.Truncate(0); err != nil {
		return fmt.Errorf("journal truncate: %w", err)
	}
	if _, err := j.file.Seek(0, 0); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}
	j.index = make(map[key][]models.JournalEntry)
	j.log.Info("journal reset", "path", j.path)
	return nil
}

// Close releases the backing file.
func (j *Journal) Close() error {
	return j.file.Close()
}
