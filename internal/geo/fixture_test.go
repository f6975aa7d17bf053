package geo

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"world-api/internal/place"
	"world-api/internal/store"
)

// countingGraph：统计近邻探测与出边查询次数，可注入出边与错误
type countingGraph struct {
	*store.Memory
	nearest   atomic.Int64
	outbounds atomic.Int64
	failWith  error
	outbound  func(place.Ref) ([]place.Vertex, bool)
}

func (g *countingGraph) Nearest(ctx context.Context, level place.Level, lat, lon, radiusM float64) (place.Vertex, error) {
	g.nearest.Add(1)
	if g.failWith != nil {
		return place.Vertex{}, g.failWith
	}
	return g.Memory.Nearest(ctx, level, lat, lon, radiusM)
}

func (g *countingGraph) Outbound(ctx context.Context, from place.Ref) ([]place.Vertex, error) {
	g.outbounds.Add(1)
	if g.outbound != nil {
		if vs, ok := g.outbound(from); ok {
			return vs, nil
		}
	}
	return g.Memory.Outbound(ctx, from)
}

func vtx(level place.Level, key string, lat, lon float64) place.Vertex {
	return place.NewVertex(level, key, key, nil, place.Geolocation{Latitude: lat, Longitude: lon}, 0)
}

// floridaGraph：world ← US ← US/FL ← US/FL/086
func floridaGraph(t *testing.T) *countingGraph {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	vs := []place.Vertex{
		place.Root(),
		vtx(place.Countries, "US", 39.76, -98.5),
		vtx(place.Adm1, "US/FL", 28.75, -82.5),
		vtx(place.Adm2, "US/FL/086", 25.6, -80.5),
	}
	for _, v := range vs {
		require.NoError(t, m.InsertVertex(ctx, v))
	}
	for i := len(vs) - 1; i > 0; i-- {
		require.NoError(t, m.InsertEdge(ctx, vs[i].Ref(), vs[i-1].Ref()))
	}
	return &countingGraph{Memory: m}
}

// chainGraph：ZZ 下一条 adm1..adm4 链，adm4 下挂 leaves 中的各 adm5 顶点
func chainGraph(t *testing.T, leaves ...place.Vertex) *countingGraph {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()
	chain := []place.Vertex{
		place.Root(),
		vtx(place.Countries, "ZZ", 0, 0),
		vtx(place.Adm1, "ZZ/1", 0, 0),
		vtx(place.Adm2, "ZZ/1/2", 0, 0),
		vtx(place.Adm3, "ZZ/1/2/3", 0, 0),
		vtx(place.Adm4, "ZZ/1/2/3/4", 0, 0),
	}
	for _, v := range append(append([]place.Vertex(nil), chain...), leaves...) {
		require.NoError(t, m.InsertVertex(ctx, v))
	}
	for i := len(chain) - 1; i > 0; i-- {
		require.NoError(t, m.InsertEdge(ctx, chain[i].Ref(), chain[i-1].Ref()))
	}
	for _, v := range leaves {
		require.NoError(t, m.InsertEdge(ctx, v.Ref(), chain[len(chain)-1].Ref()))
	}
	return &countingGraph{Memory: m}
}
