// 包 api：集中注册 HTTP API 路由，主入口挂载到 API_BASE 前缀
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"world-api/internal/graph"
	"world-api/internal/ipgeo"
	"world-api/internal/logger"
	"world-api/internal/place"
	"world-api/internal/store"
)

// Locator：坐标 → 行政层级链
type Locator interface {
	Locate(ctx context.Context, lat, lon float64) ([]place.Vertex, error)
}

// IPLocator：IP → 坐标
type IPLocator interface {
	Lookup(ip string) (ipgeo.Point, error)
}

// Deps：路由依赖；IP、Redis、Ingest 可为空
type Deps struct {
	Graph      store.Graph
	Locator    Locator
	IP         IPLocator
	Redis      *redis.Client
	Ingest     *graph.Job
	AdminToken string
	Log        *slog.Logger
}

type server struct {
	Deps
}

// BuildRoutes：构建 API 路由（未带前缀）
func BuildRoutes(d Deps) *http.ServeMux {
	if d.Log == nil {
		d.Log = logger.L()
	}
	s := &server{Deps: d}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /geo", s.handleGeo)
	mux.HandleFunc("GET /geo/ip", s.handleGeoIP)
	mux.HandleFunc("GET /places/search", s.handleSearch)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /admin/ingest", s.handleIngest)
	mux.HandleFunc("GET /admin/ingest", s.handleIngestStatus)
	return mux
}
