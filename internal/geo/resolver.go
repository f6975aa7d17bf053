// 包 geo：坐标 → 锚点地名 → 祖先链的查询路径
package geo

import (
	"context"
	"errors"
	"fmt"

	"world-api/internal/metrics"
	"world-api/internal/place"
	"world-api/internal/store"
)

const (
	InitialRadiusM     = 20000.0
	DefaultMaxRadiusKm = 2560.0
)

// ErrAnchorNotFound：所有层级在最大半径内均无顶点
var ErrAnchorNotFound = errors.New("no place found")

// Anchor：锚点及命中时的层级与半径
type Anchor struct {
	Vertex  place.Vertex
	Level   place.Level
	RadiusM float64
	Probes  int
}

// Resolver：由细到粗逐层、逐级倍增半径查找最近顶点
// 约束：每层半径自 InitialRadiusM 起翻倍直至最大半径；仅当该层耗尽时才切换到更粗层级
type Resolver struct {
	g       store.Graph
	levels  []place.Level
	initial float64
	max     float64
}

type ResolverOption func(*Resolver)

// WithMaxRadiusKm：单层最大探测半径，小于初始半径时按初始半径
func WithMaxRadiusKm(km float64) ResolverOption {
	return func(r *Resolver) {
		if km > 0 {
			r.max = km * 1000
		}
	}
}

// WithLevels：参与锚点查找的层级（由细到粗）
func WithLevels(levels ...place.Level) ResolverOption {
	return func(r *Resolver) { r.levels = append([]place.Level(nil), levels...) }
}

func NewResolver(g store.Graph, opts ...ResolverOption) *Resolver {
	r := &Resolver{g: g, levels: place.SpatialLevels, initial: InitialRadiusM, max: DefaultMaxRadiusKm * 1000}
	for _, o := range opts {
		o(r)
	}
	if r.max < r.initial {
		r.max = r.initial
	}
	return r
}

// MaxProbes：单次解析的探测上限
func (r *Resolver) MaxProbes() int {
	n := 0
	for radius := r.initial; radius <= r.max; radius *= 2 {
		n++
	}
	return n * len(r.levels)
}

// Resolve：查找包含坐标的最细层级锚点
// 异常：存储错误直接返回；全部耗尽返回 ErrAnchorNotFound
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (Anchor, error) {
	probes := 0
	defer func() { metrics.AnchorProbes.Observe(float64(probes)) }()
	for _, level := range r.levels {
		for radius := r.initial; radius <= r.max; radius *= 2 {
			if err := ctx.Err(); err != nil {
				return Anchor{}, err
			}
			probes++
			v, err := r.g.Nearest(ctx, level, lat, lon, radius)
			if err == nil {
				metrics.AnchorLevelTotal.WithLabelValues(string(level)).Inc()
				return Anchor{Vertex: v, Level: level, RadiusM: radius, Probes: probes}, nil
			}
			if !store.IsNotFound(err) {
				return Anchor{}, fmt.Errorf("nearest %s: %w", level, err)
			}
		}
	}
	return Anchor{}, ErrAnchorNotFound
}
