package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/batterygen/internal/device"
)

// healthCheckTimeout bounds the transport probe behind /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/{id}", s.handleGetDevice)
		})
	})

	return r
}

// handleHealth reports ok, or 503 when the transport probe fails.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.transport != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.transport.HealthCheck(ctx); err != nil {
			writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// RunStatus is the /status response.
type RunStatus struct {
	Status      string `json:"status"`
	Topic       string `json:"topic"`
	Iteration   int    `json:"iteration"`
	Submitted   int    `json:"submitted"`
	Delivered   int    `json:"delivered"`
	Failed      int    `json:"failed"`
	Outstanding int    `json:"outstanding"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.runStatus())
}

func (s *Server) runStatus() RunStatus {
	stats := s.publisher.Stats()
	return RunStatus{
		Status:      string(s.loop.Status()),
		Topic:       s.publisher.Topic(),
		Iteration:   s.loop.Iteration(),
		Submitted:   stats.Submitted,
		Delivered:   stats.Delivered,
		Failed:      stats.Failed,
		Outstanding: s.publisher.Outstanding(),
	}
}

// DeviceView is the JSON form of a device's current state.
type DeviceView struct {
	ID            int64  `json:"id"`
	Class         int32  `json:"class"`
	Charge        string `json:"charge"`
	DecayStep     string `json:"decay_step"`
	LastEventTime int64  `json:"last_event_time"`
}

func newDeviceView(st device.State) DeviceView {
	return DeviceView{
		ID:            st.ID,
		Class:         st.Class,
		Charge:        st.Charge.String(),
		DecayStep:     st.DecayStep.String(),
		LastEventTime: st.LastEventTime,
	}
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	ids := s.registry.IDs()
	views := make([]DeviceView, 0, len(ids))
	for _, id := range ids {
		st, err := s.registry.Get(id)
		if err != nil {
			continue
		}
		views = append(views, newDeviceView(st))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": views,
		"count":   len(views),
	})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "device id must be an integer")
		return
	}

	st, err := s.registry.Get(id)
	if errors.Is(err, device.ErrDeviceNotFound) {
		writeNotFound(w, "device not found")
		return
	}
	if err != nil {
		writeInternalError(w, "failed to read device")
		return
	}
	writeJSON(w, http.StatusOK, newDeviceView(st))
}
