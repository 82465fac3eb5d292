// v2
// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"homesim/internal/models"
)

// Config carries every runtime option for the simulator service. All values come
// from the environment; a local .env file is honored when present so container
// and laptop runs share the same knobs.
type Config struct {
	HTTPBind string
	DataDir  string
	LogPath  string

	Rooms      []string
	TotalHours int
	BaseTemp   float64
	FeedSeed   int64

	Ratings  map[string]float64
	Baseline map[string]float64

	KafkaBrokers     []string
	TransitionsTopic string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// FromEnv builds the configuration, applying defaults for anything unset.
func FromEnv() Config {
	_ = godotenv.Load()

	c := Config{
		HTTPBind:         getenv("HTTP_BIND", ":8080"),
		DataDir:          getenv("DATA_DIR", "./data"),
		LogPath:          getenv("LOG_PATH", "./homesim.log"),
		Rooms:            split(getenv("ROOMS", "Living Room"), ","),
		TotalHours:       geti("TOTAL_HOURS", 24),
		BaseTemp:         getf("BASE_TEMP", 25.0),
		FeedSeed:         int64(geti("FEED_SEED", 0)),
		KafkaBrokers:     split(getenv("KAFKA_BROKERS", ""), ","),
		TransitionsTopic: getenv("TRANSITIONS_TOPIC", "home.transitions"),
		MQTTBroker:       getenv("MQTT_BROKER", ""),
		MQTTTopic:        getenv("MQTT_TOPIC", "home.readings"),
		MQTTClientID:     getenv("MQTT_CLIENT_ID", "homesim"),
	}
	c.Ratings = map[string]float64{
		models.ApplianceAC:    getf("RATING_AC", 1.5),
		models.ApplianceLight: getf("RATING_LIGHT", 0.06),
	}
	c.Baseline = map[string]float64{
		models.ApplianceAC:    getf("BASELINE_AC_KWH", 36.0),
		models.ApplianceLight: getf("BASELINE_LIGHT_KWH", 0.72),
	}
	if c.TotalHours <= 0 {
		c.TotalHours = 24
	}
	return c
}

// BaselineTotal sums the per-appliance baseline figures.
func (c Config) BaselineTotal() float64 {
	var t float64
	for _, v := range c.Baseline {
		t += v
	}
	return t
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func geti(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func getf(k string, d float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return d
}

func split(s, sep string) []string {
	if s == "" {
		return nil
	}
	p := strings.Split(s, sep)
	out := make([]string, 0, len(p))
	for _, x := range p {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
