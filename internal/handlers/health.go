package handlers

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// Pinger is anything the health check can probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler reports backend connectivity.
type HealthHandler struct {
	kv         Pinger
	relational Pinger
}

func NewHealthHandler(kv, relational Pinger) *HealthHandler {
	return &HealthHandler{kv: kv, relational: relational}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Redis     string    `json:"redis"`
	// MySQL names the relational store; the key is kept for existing clients.
	MySQL string `json:"mysql"`
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disconnected"
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if err := p.PingContext(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

// Health handles GET /health. It always answers 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC(),
		Redis:     probe(r.Context(), h.kv),
		MySQL:     probe(r.Context(), h.relational),
	}
	if resp.Redis != "connected" || resp.MySQL != "connected" {
		resp.Status = "DEGRADED"
	}
	respondJSON(w, http.StatusOK, resp)
}
