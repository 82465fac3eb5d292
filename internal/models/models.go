// v1
// internal/models/models.go
package models

import "time"

// Canonical appliance names for a room. Power ratings are configured per name;
// anything else gets a zero rating and contributes no energy.
const (
	ApplianceAC    = "AC"
	ApplianceLight = "Light"
)

// Sensor type labels used in the sensor log.
const (
	SensorTemperature = "Temperature"
	SensorOccupancy   = "Occupancy"
	SensorLightLevel  = "LightLevel"
)

// SensorSample is one reading tuple for a room at a simulated hour.
type SensorSample struct {
	RoomID      string    `json:"roomId"`
	Hour        int       `json:"hour"`
	Temperature float64   `json:"temperature"`
	Occupied    bool      `json:"occupied"`
	LightLevel  int       `json:"lightLevel"`
	Timestamp   time.Time `json:"timestamp"`
}

// SensorRow is one persisted sensor_log record.
type SensorRow struct {
	RoomID     string    `json:"roomId"`
	SensorType string    `json:"sensorType"`
	Value      float64   `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// JournalEntry is one persisted appliance_log record. Entries are immutable and
// only flip events are stored: consecutive entries for the same (room, appliance)
// always differ in IsOn.
type JournalEntry struct {
	RoomID    string    `json:"roomId"`
	Appliance string    `json:"appliance"`
	State     string    `json:"state"`
	IsOn      bool      `json:"isOn"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId,omitempty"`
}

// EnergyRecord is one persisted energy_log record: the reduced consumption for a
// (room, appliance) pair over the journal span it consumed.
type EnergyRecord struct {
	RoomID      string    `json:"roomId"`
	Appliance   string    `json:"appliance"`
	KWh         float64   `json:"kwh"`
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
	RunID       string    `json:"runId,omitempty"`
	ComputedAt  time.Time `json:"computedAt"`
}

// EnergySummary is the aggregator output.
type EnergySummary struct {
	TotalKWh  float64            `json:"total_kwh"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// EnergyAnalysis compares a summary against the configured baseline.
type EnergyAnalysis struct {
	BaselineKWh       float64 `json:"baseline_kwh"`
	ActualKWh         float64 `json:"actual_kwh"`
	SavedKWh          float64 `json:"saved_kwh"`
	SavingsPercentage float64 `json:"savings_percentage"`
}

// Transition is the wire payload published for every journal-worthy flip.
type Transition struct {
	RoomID    string    `json:"roomId"`
	Appliance string    `json:"appliance"`
	State     string    `json:"state"`
	IsOn      bool      `json:"isOn"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId,omitempty"`
}
