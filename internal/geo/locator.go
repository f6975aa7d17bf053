package geo

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"world-api/internal/logger"
	"world-api/internal/metrics"
	"world-api/internal/place"
)

const (
	DefaultCacheTTL  = time.Hour
	DefaultCacheSize = 100000
	redisKeyPrefix   = "world:ancestry:"
	purgeBatch       = 500
)

// Locator：Resolve + Ancestry；锚点每次实时解析，祖先链按锚点 Ref 缓存（进程内 LRU 与可选 Redis）
// 约束：未命中锚点的结果不缓存；导入完成后须调用 Purge；Redis 故障仅记录日志并回退到实时遍历
type Locator struct {
	res  *Resolver
	trav *Traverser
	lru  *LRU
	rc   *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

type LocatorOption func(*Locator)

// WithRedis：启用共享缓存，rc 为 nil 时忽略
func WithRedis(rc *redis.Client) LocatorOption {
	return func(l *Locator) { l.rc = rc }
}

// WithCache：祖先链缓存 TTL 与 LRU 容量；ttl <= 0 关闭全部缓存
func WithCache(ttl time.Duration, size int) LocatorOption {
	return func(l *Locator) {
		l.ttl = ttl
		if ttl <= 0 {
			l.lru = nil
			return
		}
		l.lru = NewLRU(size, ttl)
	}
}

func WithLocatorLogger(lg *slog.Logger) LocatorOption {
	return func(l *Locator) { l.log = lg }
}

func NewLocator(res *Resolver, trav *Traverser, opts ...LocatorOption) *Locator {
	l := &Locator{res: res, trav: trav, ttl: DefaultCacheTTL, lru: NewLRU(DefaultCacheSize, DefaultCacheTTL)}
	for _, o := range opts {
		o(l)
	}
	if l.log == nil {
		l.log = logger.L()
	}
	return l
}

// Locate：返回坐标所在的行政层级链（锚点在前、根在末）
func (l *Locator) Locate(ctx context.Context, lat, lon float64) ([]place.Vertex, error) {
	begin := time.Now()
	defer func() { metrics.GeoDurationMs.Observe(float64(time.Since(begin).Milliseconds())) }()

	a, err := l.res.Resolve(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	l.log.Debug("anchor_resolved", "lat", lat, "lon", lon, "level", a.Level, "geoname_id", a.Vertex.GeonameID, "radius_m", a.RadiusM, "probes", a.Probes)
	return l.ancestry(ctx, a.Vertex)
}

func (l *Locator) ancestry(ctx context.Context, anchor place.Vertex) ([]place.Vertex, error) {
	if l.ttl <= 0 {
		return l.trav.Ancestry(ctx, anchor)
	}
	k := anchor.Ref().String()
	if vs, ok := l.lruGet(k); ok {
		metrics.GeoCacheHitsTotal.WithLabelValues("local").Inc()
		return withAnchor(anchor, vs), nil
	}
	if vs, ok := l.fromRedis(ctx, k); ok {
		metrics.GeoCacheHitsTotal.WithLabelValues("redis").Inc()
		l.lruSet(k, vs)
		return withAnchor(anchor, vs), nil
	}
	vs, err := l.trav.Ancestry(ctx, anchor)
	if err != nil {
		return nil, err
	}
	l.lruSet(k, vs)
	l.toRedis(ctx, k, vs)
	return vs, nil
}

// withAnchor：缓存链首替换为本次解析出的锚点
func withAnchor(anchor place.Vertex, cached []place.Vertex) []place.Vertex {
	out := make([]place.Vertex, len(cached))
	copy(out, cached)
	out[0] = anchor
	return out
}

// Purge：清空全部祖先链缓存；导入任务结束后调用
func (l *Locator) Purge(ctx context.Context) {
	if l.lru != nil {
		l.lru.Purge()
	}
	if l.rc == nil {
		return
	}
	n := 0
	iter := l.rc.Scan(ctx, 0, redisKeyPrefix+"*", purgeBatch).Iterator()
	batch := make([]string, 0, purgeBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := l.rc.Del(ctx, batch...).Err(); err != nil {
			l.log.Error("geo_cache_purge_error", "err", err)
		} else {
			n += len(batch)
		}
		batch = batch[:0]
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == purgeBatch {
			flush()
		}
	}
	flush()
	if err := iter.Err(); err != nil {
		l.log.Error("geo_cache_purge_error", "err", err)
	}
	l.log.Info("geo_cache_purged", "redis_keys", n)
}

func (l *Locator) lruGet(k string) ([]place.Vertex, bool) {
	if l.lru == nil {
		return nil, false
	}
	return l.lru.Get(k)
}

func (l *Locator) lruSet(k string, vs []place.Vertex) {
	if l.lru != nil {
		l.lru.Set(k, vs)
	}
}

func (l *Locator) fromRedis(ctx context.Context, k string) ([]place.Vertex, bool) {
	if l.rc == nil {
		return nil, false
	}
	s, err := l.rc.Get(ctx, redisKeyPrefix+k).Result()
	if err != nil {
		if err != redis.Nil {
			l.log.Debug("geo_cache_get_error", "anchor", k, "err", err)
		}
		return nil, false
	}
	var vs []place.Vertex
	if err := json.Unmarshal([]byte(s), &vs); err != nil || len(vs) == 0 {
		return nil, false
	}
	return vs, true
}

func (l *Locator) toRedis(ctx context.Context, k string, vs []place.Vertex) {
	if l.rc == nil {
		return
	}
	b, err := json.Marshal(vs)
	if err != nil {
		return
	}
	if err := l.rc.Set(ctx, redisKeyPrefix+k, string(b), l.ttl).Err(); err != nil {
		l.log.Debug("geo_cache_set_error", "anchor", k, "err", err)
	}
}
