package api

import (
	"context"
	"crypto/subtle"
	"net/http"
)

func (s *server) authorized(r *http.Request) bool {
	t := r.Header.Get("x-admin-token")
	return s.AdminToken != "" && subtle.ConstantTimeCompare([]byte(t), []byte(s.AdminToken)) == 1
}

// POST /admin/ingest：触发后台重新导入；202 已启动，409 已有任务运行
func (s *server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if s.Ingest == nil {
		writeError(w, http.StatusServiceUnavailable, "ingest not configured")
		return
	}
	if !s.Ingest.Start(context.WithoutCancel(r.Context())) {
		writeError(w, http.StatusConflict, "ingest already running")
		return
	}
	s.Log.Info("admin_ingest_started", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusAccepted, s.Ingest.Status())
}

// GET /admin/ingest：最近一次任务状态
func (s *server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if s.Ingest == nil {
		writeError(w, http.StatusServiceUnavailable, "ingest not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.Ingest.Status())
}
