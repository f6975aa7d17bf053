package geo

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"world-api/internal/logger"
	"world-api/internal/place"
)

func newTestLocator(g *countingGraph, opts ...LocatorOption) *Locator {
	opts = append([]LocatorOption{WithLocatorLogger(logger.New(io.Discard, "error", ""))}, opts...)
	return NewLocator(NewResolver(g), NewTraverser(g), opts...)
}

func TestLocate_NearbyPointsGetTheirOwnAnchor(t *testing.T) {
	t.Parallel()
	g := chainGraph(t,
		vtx(place.Adm5, "ZZ/1/2/3/4/A", 0.0001, -0.0005),
		vtx(place.Adm5, "ZZ/1/2/3/4/B", 0.0001, 0.0020),
	)
	l := newTestLocator(g)

	first, err := l.Locate(context.Background(), 0.0001, 0.0001)
	require.NoError(t, err)
	assert.Equal(t, "ZZ/1/2/3/4/A", first[0].GeonameID)

	second, err := l.Locate(context.Background(), 0.0001, 0.0012)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZZ/1/2/3/4/B", "ZZ/1/2/3/4", "ZZ/1/2/3", "ZZ/1/2", "ZZ/1", "ZZ", place.RootKey}, keys(second))
}

func TestLocate_ResolvesEveryCallAndCachesAncestry(t *testing.T) {
	t.Parallel()
	g := floridaGraph(t)
	l := newTestLocator(g)

	first, err := l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	probes, walks := g.nearest.Load(), g.outbounds.Load()
	assert.Equal(t, int64(len(first)), walks)

	second, err := l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2*probes, g.nearest.Load())
	assert.Equal(t, walks, g.outbounds.Load())
	assert.Equal(t, 1, l.lru.Len())
}

func TestLocate_SharedAncestryKeepsFreshAnchor(t *testing.T) {
	t.Parallel()
	g := floridaGraph(t)
	l := newTestLocator(g)

	_, err := l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)

	// 缓存链首被替换为本次解析出的锚点
	stale := []place.Vertex{vtx(place.Adm2, "US/FL/086", 0, 0), place.Root()}
	l.lru.Set(place.Ref{Level: place.Adm2, Key: "US/FL/086"}.String(), stale)
	got, err := l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 25.6, got[0].Geolocation.Latitude, 1e-9)
	assert.InDelta(t, 0, stale[0].Geolocation.Latitude, 1e-9)
}

func TestLocate_PurgeDropsCachedAncestry(t *testing.T) {
	t.Parallel()
	g := floridaGraph(t)
	l := newTestLocator(g)

	_, err := l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	walks := g.outbounds.Load()

	l.Purge(context.Background())
	assert.Equal(t, 0, l.lru.Len())
	_, err = l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	assert.Equal(t, 2*walks, g.outbounds.Load())
}

func TestLocate_NotFoundIsNotCached(t *testing.T) {
	t.Parallel()
	g := floridaGraph(t)
	l := newTestLocator(g)

	_, err := l.Locate(context.Background(), -60, 170)
	assert.ErrorIs(t, err, ErrAnchorNotFound)
	probes := g.nearest.Load()

	_, err = l.Locate(context.Background(), -60, 170)
	assert.ErrorIs(t, err, ErrAnchorNotFound)
	assert.Equal(t, 2*probes, g.nearest.Load())
	assert.Equal(t, 0, l.lru.Len())
}

func TestLocate_CacheDisabled(t *testing.T) {
	t.Parallel()
	g := floridaGraph(t)
	l := newTestLocator(g, WithCache(0, 0))

	_, err := l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	walks := g.outbounds.Load()
	_, err = l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	assert.Equal(t, 2*walks, g.outbounds.Load())
	l.Purge(context.Background())
}

func TestLocate_ExpiredAncestryWalksAgain(t *testing.T) {
	t.Parallel()
	g := floridaGraph(t)
	l := newTestLocator(g, WithCache(time.Minute, 10))
	now := time.Now()
	l.lru.now = func() time.Time { return now }

	_, err := l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	walks := g.outbounds.Load()

	now = now.Add(2 * time.Minute)
	_, err = l.Locate(context.Background(), 25.76, -80.19)
	require.NoError(t, err)
	assert.Equal(t, 2*walks, g.outbounds.Load())
}
