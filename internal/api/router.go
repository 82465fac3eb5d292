// v2
// internal/api/router.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"homesim/internal/metrics"
)

// NewRouter wires all endpoints onto a gorilla router.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/metrics", metricsHandler).Methods("GET")

	r.HandleFunc("/api/status", s.status).Methods("GET")
	r.HandleFunc("/api/room/{roomId}", s.room).Methods("GET")
	r.HandleFunc("/api/history/{roomId}/{sensorType}", s.history).Methods("GET")
	r.HandleFunc("/api/energy", s.energySummary).Methods("GET")
	r.HandleFunc("/api/report/energy/{roomId}/{appliance}", s.energyReport).Methods("GET")
	r.HandleFunc("/api/override", s.override).Methods("POST")
	r.HandleFunc("/api/tick", s.tick).Methods("POST")
	r.HandleFunc("/api/reset", s.reset).Methods("POST")
	r.HandleFunc("/api/stats", s.stats).Methods("GET")

	return r
}

func metricsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(metrics.Render()))
}
