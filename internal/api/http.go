// v3
// internal/api/http.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"homesim/internal/control"
	"homesim/internal/energy"
	"homesim/internal/sim"
	"homesim/internal/storage"
)

// Server exposes the simulation core over HTTP. Every handler preserves the
// core contracts verbatim; in particular the tick response carries whether each
// appliance actually changed state.
type Server struct {
	state   *sim.State
	reducer *energy.Reducer
	agg     *energy.Aggregator
	sensors *storage.SensorLog
	log     *slog.Logger
}

// NewServer builds the HTTP surface over the simulation state.
func NewServer(state *sim.State, reducer *energy.Reducer, agg *energy.Aggregator, sensors *storage.SensorLog, log *slog.Logger) *Server {
	return &Server{state: state, reducer: reducer, agg: agg, sensors: sensors, log: log}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	data := map[string]statusView{}
	for id, st := range s.state.Statuses() {
		data[id] = toStatusView(st)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": data})
}

type statusView struct {
	Temperature float64 `json:"temperature"`
	Occupied    bool    `json:"occupied"`
	LightLevel  int     `json:"light_level"`
	ACState     string  `json:"ac_state"`
	LightState  string  `json:"light_state"`
}

func toStatusView(st control.Status) statusView {
	return statusView{
		Temperature: st.Temperature,
		Occupied:    st.Occupied,
		LightLevel:  st.LightLevel,
		ACState:     st.ACState,
		LightState:  st.LightState,
	}
}

func (s *Server) room(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	st, err := s.state.Room(roomID)
	if err != nil {
		if errors.Is(err, sim.ErrUnknownRoom) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": st})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["roomId"]
	sensorType := vars["sensorType"]
	if _, err := s.state.Room(roomID); err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	rows := s.sensors.History(roomID, sensorType, 50)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"room":   roomID,
		"sensor": sensorType,
		"data":   rows,
	})
}

func (s *Server) energySummary(w http.ResponseWriter, _ *http.Request) {
	sum := s.agg.Summarize()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"data":     sum,
		"analysis": s.agg.Analyze(sum),
	})
}

func (s *Server) energyReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomID := vars["roomId"]
	appliance := vars["appliance"]
	if _, err := s.state.Room(roomID); err != nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	kwh, err := s.reducer.Compute(roomID, appliance, s.state.RunID())
	if err != nil {
		s.log.Error("energy compute failed", "roomId", roomID, "appliance", appliance, "err", err)
		if errors.Is(err, energy.ErrOutOfOrder) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("compute failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":      roomID,
		"appliance":    appliance,
		"kwh_consumed": kwh,
	})
}

func (s *Server) override(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID    string `json:"room_id"`
		Appliance string `json:"appliance"`
		State     string `json:"state"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.RoomID) == "" || strings.TrimSpace(req.Appliance) == "" {
		writeError(w, http.StatusBadRequest, "room_id and appliance are required")
		return
	}
	if err := s.state.Override(req.RoomID, req.Appliance, req.State); err != nil {
		switch {
		case errors.Is(err, sim.ErrUnknownRoom):
			writeError(w, http.StatusNotFound, "room not found")
		case errors.Is(err, control.ErrUnknownAppliance):
			writeError(w, http.StatusBadRequest, "appliance must be 'AC' or 'Light'")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	msg := fmt.Sprintf("%s in %s overridden to %s", req.Appliance, req.RoomID, req.State)
	if req.State == "" {
		msg = fmt.Sprintf("%s override in %s cleared", req.Appliance, req.RoomID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": msg})
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"room_id"`
		Hour   *int   `json:"hour"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Hour == nil || strings.TrimSpace(req.RoomID) == "" {
		writeError(w, http.StatusBadRequest, "missing 'hour' or 'room_id' parameter")
		return
	}
	res, err := s.state.Tick(req.RoomID, *req.Hour)
	if err != nil {
		if errors.Is(err, sim.ErrUnknownRoom) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("room %q not initialized", req.RoomID))
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("simulation failed at hour %d: %v", *req.Hour, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Simulation advanced to hour %d", *req.Hour),
		"data":    res,
	})
}

func (s *Server) reset(w http.ResponseWriter, _ *http.Request) {
	if err := s.state.Reset(); err != nil {
		s.log.Error("reset failed", "err", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("reset failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "logs cleared for a fresh simulation run",
		"run_id":  s.state.RunID(),
	})
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": s.state.Stats()})
}

func decodeJSON(r *http.Request, v any) error {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	return json.Unmarshal(b, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
