package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

const dbPingTimeout = 2 * time.Second

// componentStatus is the check result for one dependency.
type componentStatus struct {
	Healthy    bool   `json:"healthy"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	CheckedAt  time.Time                  `json:"checked_at"`
	Components map[string]componentStatus `json:"components"`
}

// HealthHandler answers liveness and readiness checks. Liveness is
// unconditional; readiness requires the report store to be reachable, since
// every operation in the system goes through it.
type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())

	resp := healthResponse{
		Status:     "healthy",
		CheckedAt:  time.Now(),
		Components: map[string]componentStatus{"database": db},
	}

	code := http.StatusOK
	if !db.Healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)

	status := componentStatus{
		Healthy:    err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		status.Message = err.Error()
	}
	return status
}
