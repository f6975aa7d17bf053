package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"world-api/internal/place"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, classify(fmt.Errorf("wrapped: %w", sql.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, classify(&pq.Error{Code: "23505", Message: "dup"}), ErrDuplicateKey)
	assert.ErrorIs(t, classify(&pq.Error{Code: "08006", Message: "conn"}), ErrUnavailable)
	assert.ErrorIs(t, classify(&pq.Error{Code: "57P01", Message: "shutdown"}), ErrUnavailable)
	assert.ErrorIs(t, classify(driver.ErrBadConn), ErrUnavailable)

	other := &pq.Error{Code: "42P01", Message: "no table"}
	got := classify(other)
	assert.False(t, errors.Is(got, ErrUnavailable))
	assert.False(t, errors.Is(got, ErrDuplicateKey))
}

func TestTable(t *testing.T) {
	t.Parallel()
	for _, l := range place.Levels {
		name, err := table(l)
		assert.NoError(t, err)
		assert.Equal(t, string(l), name)
	}
	_, err := table(place.Level("adm1; DROP TABLE adm1"))
	assert.Error(t, err)
}

// scriptedDriver：按 SQL 前缀返回固定结果集，edges 结果集读完首行后报错
type scriptedDriver struct{}

type scriptedConn struct{}

type scriptedStmt struct{ q string }

type scriptedRows struct {
	cols []string
	data [][]driver.Value
	fail error
	i    int
}

var errStreamReset = errors.New("stream reset")

func (scriptedDriver) Open(string) (driver.Conn, error) { return scriptedConn{}, nil }

func (scriptedConn) Prepare(q string) (driver.Stmt, error) { return scriptedStmt{q: q}, nil }
func (scriptedConn) Close() error                          { return nil }
func (scriptedConn) Begin() (driver.Tx, error)             { return nil, errors.New("no tx") }

func (scriptedStmt) Close() error                               { return nil }
func (scriptedStmt) NumInput() int                              { return -1 }
func (scriptedStmt) Exec([]driver.Value) (driver.Result, error) { return driver.RowsAffected(0), nil }

func (s scriptedStmt) Query([]driver.Value) (driver.Rows, error) {
	if strings.Contains(s.q, "FROM "+EdgeTable) {
		return &scriptedRows{
			cols: []string{"to_level", "to_key"},
			data: [][]driver.Value{{"adm1", "ZZ/01"}},
			fail: errStreamReset,
		}, nil
	}
	return &scriptedRows{
		cols: []string{"geoname_id", "name", "alternate_names", "latitude", "longitude", "population"},
		data: [][]driver.Value{{"ZZ/01", "North", []byte("{}"), 1.0, 2.0, int64(0)}},
	}, nil
}

func (r *scriptedRows) Columns() []string { return r.cols }
func (r *scriptedRows) Close() error      { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		if r.fail != nil {
			return r.fail
		}
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func init() { sql.Register("store-scripted", scriptedDriver{}) }

func TestOutbound_ReportsErrorAfterPartialRead(t *testing.T) {
	t.Parallel()
	db, err := sql.Open("store-scripted", "")
	require.NoError(t, err)
	defer db.Close()

	vs, err := AttachDB(db).Outbound(context.Background(), place.Ref{Level: place.Adm2, Key: "ZZ/01/02"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStreamReset)
	assert.Nil(t, vs)
}

func TestFindVertex_ScansColumns(t *testing.T) {
	t.Parallel()
	db, err := sql.Open("store-scripted", "")
	require.NoError(t, err)
	defer db.Close()

	v, err := AttachDB(db).FindVertex(context.Background(), place.Adm1, "ZZ/01")
	require.NoError(t, err)
	assert.Equal(t, place.Adm1, v.Level)
	assert.Equal(t, "North", v.Name)
	assert.Empty(t, v.AlternateNames)
	assert.InDelta(t, 2.0, v.Geolocation.Longitude, 1e-9)
}
