package api

import (
	"net/http"
	"sort"
	"strings"

	"world-api/internal/metrics"
	"world-api/internal/place"
)

// /places/search?q=&level=&limit=：level 缺省时检索 world 以外的全部层级并按人口合并
func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	metrics.SearchRequestsTotal.Inc()
	q := r.URL.Query()
	term := strings.TrimSpace(q.Get("q"))
	if term == "" {
		writeError(w, http.StatusBadRequest, "invalid query: q is required")
		return
	}
	limit, err := parseLimit(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	levels := place.Levels[1:]
	if ls := q.Get("level"); ls != "" {
		l, err := place.ParseLevel(ls)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid query: "+err.Error())
			return
		}
		levels = []place.Level{l}
	}
	var out []place.Vertex
	for _, l := range levels {
		vs, err := s.Graph.SearchNames(r.Context(), l, term, limit)
		if err != nil {
			s.Log.Error("search_error", "level", l, "q", term, "err", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		out = append(out, vs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Population > out[j].Population })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []place.Vertex{}
	}
	writeJSON(w, http.StatusOK, out)
}
