package api

import (
	"context"
	"net/http"
	"time"

	"world-api/internal/version"
)

type healthOut struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Redis  string `json:"redis"`
	Commit string `json:"commit"`
}

// /healthz：存储不可用时返回 503；Redis 仅报告状态
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	out := healthOut{Status: "ok", Store: "ok", Redis: "disabled", Commit: version.Commit}
	status := http.StatusOK
	if err := s.Graph.Ping(ctx); err != nil {
		s.Log.Warn("health_store_error", "err", err)
		out.Status, out.Store = "degraded", "error"
		status = http.StatusServiceUnavailable
	}
	if s.Redis != nil {
		out.Redis = "ok"
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			s.Log.Warn("health_redis_error", "err", err)
			out.Redis = "error"
		}
	}
	writeJSON(w, status, out)
}
