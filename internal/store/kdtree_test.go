package store

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"world-api/internal/place"
)

func TestHaversine(t *testing.T) {
	t.Parallel()
	// Paris -> London ≈ 344 km
	d := haversine(48.8566, 2.3522, 51.5074, -0.1278)
	assert.InDelta(t, 344, d, 3)
	assert.InDelta(t, 0, haversine(10, 10, 10, 10), 1e-9)
}

func TestNearest_MatchesBruteForce(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewSource(7))
	vs := make([]place.Vertex, 500)
	for i := range vs {
		vs[i] = place.Vertex{
			GeonameID:   fmt.Sprint(i),
			Geolocation: place.Geolocation{Latitude: rng.Float64()*180 - 90, Longitude: rng.Float64()*360 - 180},
		}
	}
	root := buildKD(append([]place.Vertex(nil), vs...), 0)

	queries := [][2]float64{{0, 179.9}, {0, -179.9}, {89.5, 10}, {-89.5, -100}}
	for i := 0; i < 200; i++ {
		queries = append(queries, [2]float64{rng.Float64()*180 - 90, rng.Float64()*360 - 180})
	}
	for _, q := range queries {
		want := math.MaxFloat64
		for _, v := range vs {
			want = math.Min(want, haversine(q[0], q[1], v.Geolocation.Latitude, v.Geolocation.Longitude))
		}
		_, got, ok := nearest(root, q[0], q[1])
		require.True(t, ok)
		assert.InDelta(t, want, got, 1e-6, "query %v", q)
	}
}

func TestNearest_Empty(t *testing.T) {
	t.Parallel()
	_, _, ok := nearest(nil, 0, 0)
	assert.False(t, ok)
}

func TestMeridianKm(t *testing.T) {
	t.Parallel()
	// 赤道上相距 1° 经度 ≈ 111 km
	assert.InDelta(t, 111.2, meridianKm(0, 1, 0), 0.5)
	// 超过 90° 时为到极点的距离
	assert.InDelta(t, earthRadiusKm*math.Pi/2, meridianKm(0, 120, 0), 1e-6)
	assert.InDelta(t, meridianKm(10, 179, -179), meridianKm(10, 0, 2), 1e-6)
}
