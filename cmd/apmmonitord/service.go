package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"pdm-backend/services/apm/monitor"
)

// apmClient is the slice of apm.Client the http surface needs; tests
// substitute a fake.
type apmClient interface {
	CreateAlert(ctx context.Context) error
	CheckConnectivity(ctx context.Context) error
}

type Service struct {
	client    apmClient
	store     *monitor.Store
	predictor monitor.Predictor
}

func NewService(client apmClient, store *monitor.Store, predictor monitor.Predictor) Service {
	return Service{client: client, store: store, predictor: predictor}
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s Service) Greet(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{
		"message": "apmmonitord is running",
	})
}

func (s Service) Health(w http.ResponseWriter, r *http.Request) {
	last, err := s.store.LastSeen(r.Context())
	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	alerts, err := s.store.AlertCount(r.Context())
	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	writeJson(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"last_seen":    last,
		"filed_alerts": alerts,
	})
}

// Predict runs the configured predictor on a caller-supplied feature
// vector, so operators can sanity-check the rules against known data
// without waiting for a poll cycle.
func (s Service) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJson(w, http.StatusMethodNotAllowed, map[string]string{
			"error": "use POST",
		})
		return
	}
	var features map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeJson(w, http.StatusBadRequest, map[string]string{
			"error": "invalid feature json: " + err.Error(),
		})
		return
	}
	failure, err := s.predictor.Predict(features)
	if err != nil {
		writeJson(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
		return
	}
	risk := "nominal"
	if failure {
		risk = "elevated"
	}
	writeJson(w, http.StatusOK, map[string]any{
		"failure": failure,
		"risk":    risk,
	})
}

// TestConnectivity probes the configured APM endpoints without filing
// anything.
func (s Service) TestConnectivity(w http.ResponseWriter, r *http.Request) {
	err := s.client.CheckConnectivity(r.Context())
	if err != nil {
		writeJson(w, http.StatusBadGateway, map[string]string{
			"status": "unreachable",
			"error":  err.Error(),
		})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

// TestAlert files a real alert against the configured technical object
// so operators can verify the APM wiring end to end.
func (s Service) TestAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJson(w, http.StatusMethodNotAllowed, map[string]string{
			"error": "use POST",
		})
		return
	}
	err := s.client.CreateAlert(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "test alert failed", "err", err)
		writeJson(w, http.StatusBadGateway, map[string]string{
			"error": err.Error(),
		})
		return
	}
	writeJson(w, http.StatusOK, map[string]string{"status": "alert filed"})
}

func (s Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v2/greet", s.Greet)
	mux.HandleFunc("/v2/health", s.Health)
	mux.HandleFunc("/v2/predict", s.Predict)
	mux.HandleFunc("/v2/test-connectivity", s.TestConnectivity)
	mux.HandleFunc("/v2/test-alert", s.TestAlert)
}
