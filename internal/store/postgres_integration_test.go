package store_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"world-api/internal/migrate"
	"world-api/internal/place"
	"world-api/internal/store"
)

// openTestPostgres：PG_TEST_DSN 未设置时跳过；键带随机前缀，结束时清理
func openTestPostgres(t *testing.T) (*store.Postgres, string) {
	t.Helper()
	dsn := os.Getenv("PG_TEST_DSN")
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, migrate.EnsureSchema(db))

	prefix := "it-" + uuid.NewString()[:8] + "/"
	t.Cleanup(func() {
		for _, l := range place.Levels {
			_, _ = db.Exec("DELETE FROM "+string(l)+" WHERE geoname_id LIKE $1", prefix+"%")
		}
		_, _ = db.Exec("DELETE FROM "+store.EdgeTable+" WHERE from_key LIKE $1 OR to_key LIKE $1", prefix+"%")
		_ = db.Close()
	})
	return store.AttachDB(db), prefix
}

func TestPostgres_NearestRadiusInMetres(t *testing.T) {
	s, prefix := openTestPostgres(t)
	ctx := context.Background()
	// 纬度 0.01 度约 1112 m
	v := place.NewVertex(place.Adm5, prefix+"A", "Outpost", []string{"Outpost", "Station"}, place.Geolocation{Latitude: -54.41, Longitude: -36.5}, 12)
	require.NoError(t, s.InsertVertex(ctx, v))

	_, err := s.Nearest(ctx, place.Adm5, -54.40, -36.5, 1000)
	assert.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.Nearest(ctx, place.Adm5, -54.40, -36.5, 1200)
	require.NoError(t, err)
	assert.Equal(t, v.GeonameID, got.GeonameID)
	assert.Equal(t, v.AlternateNames, got.AlternateNames)
	assert.Equal(t, int64(12), got.Population)
}

func TestPostgres_VertexAndEdgeDuplicates(t *testing.T) {
	s, prefix := openTestPostgres(t)
	ctx := context.Background()
	country := place.NewVertex(place.Countries, prefix+"ZZ", "Zedland", nil, place.Geolocation{}, 0)
	adm1 := place.NewVertex(place.Adm1, prefix+"ZZ/01", "North", nil, place.Geolocation{}, 0)
	require.NoError(t, s.InsertVertex(ctx, country))
	require.NoError(t, s.InsertVertex(ctx, adm1))
	assert.ErrorIs(t, s.InsertVertex(ctx, adm1), store.ErrDuplicateKey)

	require.NoError(t, s.InsertEdge(ctx, adm1.Ref(), country.Ref()))
	err := s.InsertEdge(ctx, adm1.Ref(), country.Ref())
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
	assert.True(t, store.IsDuplicate(err))

	out, err := s.Outbound(ctx, adm1.Ref())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, country.Ref(), out[0].Ref())

	out, err = s.Outbound(ctx, country.Ref())
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = s.FindVertex(ctx, place.Adm1, prefix+"missing")
	assert.True(t, store.IsNotFound(err))
}

func TestPostgres_SearchNames(t *testing.T) {
	s, prefix := openTestPostgres(t)
	ctx := context.Background()
	word := "qx" + uuid.NewString()[:6]
	require.NoError(t, s.InsertVertex(ctx, place.NewVertex(place.Adm2, prefix+"small", word, nil, place.Geolocation{}, 10)))
	require.NoError(t, s.InsertVertex(ctx, place.NewVertex(place.Adm2, prefix+"big", word, nil, place.Geolocation{}, 1000)))

	got, err := s.SearchNames(ctx, place.Adm2, word, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, prefix+"big", got[0].GeonameID)
}

func TestPostgres_IngestLock(t *testing.T) {
	s, _ := openTestPostgres(t)
	ctx := context.Background()
	unlock, err := s.TryLockIngest(ctx)
	require.NoError(t, err)

	_, err = s.TryLockIngest(ctx)
	assert.ErrorIs(t, err, store.ErrLocked)

	unlock()
	again, err := s.TryLockIngest(ctx)
	require.NoError(t, err)
	again()
}
