// 程序入口：读取配置、初始化依赖并启动查询服务；API 注册在 internal/api
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"world-api/internal/api"
	"world-api/internal/gazetteer"
	"world-api/internal/geo"
	"world-api/internal/graph"
	"world-api/internal/ipgeo"
	"world-api/internal/logger"
	"world-api/internal/metrics"
	"world-api/internal/middleware"
	"world-api/internal/utils"
	"world-api/internal/version"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil && f > 0 {
		return f
	}
	return def
}

func main() {
	_ = godotenv.Load(".env")
	l := logger.Setup()
	defer logger.Close()
	l.Info("starting", "commit", version.Commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiBase := getenv("API_BASE", "/api")
	l.Debug("config_api_base", "base", apiBase)

	gs, err := utils.OpenGraphFromEnv(ctx)
	if err != nil {
		l.Error("store_open_error", "err", err)
		os.Exit(1)
	}
	defer gs.Close()
	l.Info("store_open_ok", "driver", gs.Driver)

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	var ipr api.IPLocator
	if p := os.Getenv("GEOIP_CITY_PATH"); p != "" {
		r, err := ipgeo.Open(p)
		if err != nil {
			l.Error("geoip_open_error", "path", p, "err", err)
		} else {
			defer r.Close()
			ipr = r
			l.Info("geoip_ready", "path", p)
		}
	} else {
		l.Info("geoip_disabled")
	}

	resolver := geo.NewResolver(gs.Graph, geo.WithMaxRadiusKm(getenvFloat("GEO_MAX_RADIUS_KM", geo.DefaultMaxRadiusKm)))
	ttl := time.Duration(getenvInt("GEO_CACHE_TTL_S", int(geo.DefaultCacheTTL/time.Second))) * time.Second
	locator := geo.NewLocator(resolver, geo.NewTraverser(gs.Graph),
		geo.WithRedis(rc),
		geo.WithCache(ttl, getenvInt("GEO_CACHE_SIZE", geo.DefaultCacheSize)))
	l.Debug("config_geo", "max_probes", resolver.MaxProbes(), "cache_ttl_s", int(ttl/time.Second))

	files := getenv("WORLD_FILES", filepath.Join("data", "worldFiles"))
	builder := graph.NewBuilder(gs.Graph, graph.WithWorkers(getenvInt("INGEST_WORKERS", 4)))
	job := graph.NewJob(builder, func() (gazetteer.Source, error) {
		src, err := gazetteer.Open(files)
		if err != nil {
			return nil, err
		}
		l.Info("ingest_source", "files", len(src.Files()), "path", files)
		return src, nil
	}, graph.WithOnDone(func() { locator.Purge(context.Background()) }))
	if os.Getenv("INGEST_ON_START") == "true" || (gs.Driver == "memory" && os.Getenv("INGEST_ON_START") != "false") {
		job.Start(ctx)
	}
	if os.Getenv("INGEST_SCHEDULE") == "weekly" {
		loc, err := time.LoadLocation(getenv("INGEST_TZ", "UTC"))
		if err != nil {
			l.Error("ingest_tz_error", "err", err)
			loc = time.UTC
		}
		graph.ScheduleWeekly(ctx, job, loc, time.Monday, getenvInt("INGEST_HOUR", 3))
	}

	apiMux := api.BuildRoutes(api.Deps{
		Graph:      gs.Graph,
		Locator:    locator,
		IP:         ipr,
		Redis:      rc,
		Ingest:     job,
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		Log:        l,
	})
	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, apiMux))
	mux.Handle(apiBase+"/metrics", metrics.Handler())

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	addr := getenv("ADDR", ":8080")
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	if os.Getenv("TLS_ENABLE") == "true" {
		certPath := getenv("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := getenv("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "world-api.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
	}
	job.Wait()
	l.Info("shutdown")
}
