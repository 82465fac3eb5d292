// v2
// internal/storage/sensor_log.go
// Package storage holds the two persisted relations that are not the transition
// journal: the raw sensor log and the computed energy log.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"homesim/internal/models"
)

// SensorLog is the append-only store for raw sensor readings.
type SensorLog struct {
	mu   sync.RWMutex
	path string
	log  *slog.Logger
	file *os.File
	rows []models.SensorRow
}

// OpenSensorLog creates or loads the sensor log file.
func OpenSensorLog(dir string, log *slog.Logger) (*SensorLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	path := filepath.Join(dir, "sensor_log.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sensor log: %w", err)
	}
	s := &SensorLog{path: path, log: log, file: f}
	if err := s.load(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *SensorLog) load() error {
	if _, err := s.file.Seek(0, 0); err != nil {
		return err
	}
	scanner := bufio.NewScanner(s.file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r models.SensorRow
		if err := json.Unmarshal(line, &r); err != nil {
			s.log.Warn("skipping bad sensor record", "err", err)
			continue
		}
		s.rows = append(s.rows, r)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	s.log.Info("sensor log loaded", "path", s.path, "rows", len(s.rows))
	return nil
}

// Append durably writes one sensor row.
func (s *SensorLog) Append(r models.SensorRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.Timestamp = r.Timestamp.UTC()
	enc, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := s.file.Write(append(enc, '\n')); err != nil {
		return fmt.Errorf("sensor log append: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sensor log sync: %w", err)
	}
	s.rows = append(s.rows, r)
	return nil
}

// History returns up to limit rows for (room, sensorType), most recent first.
func (s *SensorLog) History(roomID, sensorType string, limit int) []models.SensorRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]models.SensorRow, 0, limit)
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		r := s.rows[i]
		if r.RoomID == roomID && r.SensorType == sensorType {
			out = append(out, r)
		}
	}
	return out
}

// Len reports the number of persisted rows.
func (s *SensorLog) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Reset clears all rows and truncates the backing file.
func (s *SensorLog) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("sensor log truncate: %w", err)
	}
	if _, err := s.file.Seek(0, 0); err != nil {
		return err
	}
	if err := s.file.Sync(); err != nil {
		return err
	}
	s.rows = nil
	s.log.Info("sensor log reset", "path", s.path)
	return nil
}

// Close releases the backing file.
func (s *SensorLog) Close() error {
	return s.file.Close()
}
