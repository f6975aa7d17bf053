package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"world-api/internal/logger"
	"world-api/internal/place"
)

// EdgeTable：包含关系边表（子→父）
const EdgeTable = "contains_in"

// ingestLockID：导入任务的 advisory lock 编号
const ingestLockID int64 = 0x776f726c64

// Postgres：基于 PostgreSQL 的图谱存储；每个层级一张表
// 约束：近邻查询依赖 cube/earthdistance 扩展；全文检索依赖 names_tsv 列（见 migrate）
type Postgres struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (s *Postgres) DB() *sql.DB { return s.db }

func (s *Postgres) Close() error { return s.db.Close() }

// table：层级表名；层级来自封闭枚举，拼接 SQL 前必须校验
func table(l place.Level) (string, error) {
	if !l.Valid() {
		return "", fmt.Errorf("unknown level %q", l)
	}
	return string(l), nil
}

const vertexColumns = "geoname_id, name, alternate_names, latitude, longitude, population"

func (s *Postgres) InsertVertex(ctx context.Context, v place.Vertex) error {
	t, err := table(v.Level)
	if err != nil {
		return err
	}
	q := "INSERT INTO " + t + "(" + vertexColumns + ", names_tsv) VALUES($1,$2,$3,$4,$5,$6, to_tsvector('simple', $7))"
	_, err = s.db.ExecContext(ctx, q,
		v.GeonameID, v.Name, pq.Array(v.AlternateNames),
		v.Geolocation.Latitude, v.Geolocation.Longitude, v.Population,
		strings.Join(v.AlternateNames, " "),
	)
	if err != nil {
		return fmt.Errorf("insert vertex %s: %w", v.Ref(), classify(err))
	}
	return nil
}

func (s *Postgres) FindVertex(ctx context.Context, level place.Level, key string) (place.Vertex, error) {
	t, err := table(level)
	if err != nil {
		return place.Vertex{}, err
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+vertexColumns+" FROM "+t+" WHERE geoname_id=$1", key)
	v, err := scanVertex(row, level)
	if err != nil {
		return place.Vertex{}, fmt.Errorf("%s:%s: %w", level, key, classify(err))
	}
	return v, nil
}

// Nearest：earth_box 预过滤走 GIST 索引，再按 earth_distance 精确过滤与排序
func (s *Postgres) Nearest(ctx context.Context, level place.Level, lat, lon, radiusM float64) (place.Vertex, error) {
	t, err := table(level)
	if err != nil {
		return place.Vertex{}, err
	}
	q := `SELECT ` + vertexColumns + ` FROM ` + t + `
        WHERE earth_box(ll_to_earth($1, $2), $3) @> ll_to_earth(latitude, longitude)
          AND earth_distance(ll_to_earth($1, $2), ll_to_earth(latitude, longitude)) <= $3
        ORDER BY earth_distance(ll_to_earth($1, $2), ll_to_earth(latitude, longitude))
        LIMIT 1`
	v, err := scanVertex(s.db.QueryRowContext(ctx, q, lat, lon, radiusM), level)
	if err != nil {
		return place.Vertex{}, fmt.Errorf("nearest %s within %.0fm: %w", level, radiusM, classify(err))
	}
	return v, nil
}

func (s *Postgres) InsertEdge(ctx context.Context, from, to place.Ref) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO "+EdgeTable+"(from_level, from_key, to_level, to_key) VALUES($1,$2,$3,$4)",
		string(from.Level), from.Key, string(to.Level), to.Key)
	if err != nil {
		return fmt.Errorf("insert edge %s -> %s: %w", from, to, classify(err))
	}
	return nil
}

func (s *Postgres) Outbound(ctx context.Context, from place.Ref) ([]place.Vertex, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT to_level, to_key FROM "+EdgeTable+" WHERE from_level=$1 AND from_key=$2",
		string(from.Level), from.Key)
	if err != nil {
		return nil, fmt.Errorf("outbound %s: %w", from, classify(err))
	}
	var refs []place.Ref
	for rows.Next() {
		var lv, key string
		if err := rows.Scan(&lv, &key); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("outbound %s: %w", from, classify(err))
		}
		refs = append(refs, place.Ref{Level: place.Level(lv), Key: key})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("outbound %s: %w", from, classify(err))
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("outbound %s: %w", from, classify(err))
	}
	out := make([]place.Vertex, 0, len(refs))
	for _, r := range refs {
		v, err := s.FindVertex(ctx, r.Level, r.Key)
		if IsNotFound(err) {
			logger.L().Warn("edge_dangling", "from", from.String(), "to", r.String())
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Postgres) SearchNames(ctx context.Context, level place.Level, term string, limit int) ([]place.Vertex, error) {
	t, err := table(level)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+vertexColumns+" FROM "+t+" WHERE names_tsv @@ plainto_tsquery('simple', $1) ORDER BY population DESC, geoname_id LIMIT $2",
		term, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", level, classify(err))
	}
	defer rows.Close()
	var out []place.Vertex
	for rows.Next() {
		v, err := scanVertex(rows, level)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", level, classify(err))
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", level, classify(err))
	}
	return out, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// TryLockIngest：会话级 advisory lock，持有专用连接直到 unlock
func (s *Postgres) TryLockIngest(ctx context.Context) (func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, classify(err)
	}
	var ok bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", ingestLockID).Scan(&ok); err != nil {
		_ = conn.Close()
		return nil, classify(err)
	}
	if !ok {
		_ = conn.Close()
		return nil, ErrLocked
	}
	return func() {
		_, _ = conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", ingestLockID)
		_ = conn.Close()
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVertex(row scanner, level place.Level) (place.Vertex, error) {
	v := place.Vertex{Level: level}
	var names pq.StringArray
	if err := row.Scan(&v.GeonameID, &v.Name, &names, &v.Geolocation.Latitude, &v.Geolocation.Longitude, &v.Population); err != nil {
		return place.Vertex{}, err
	}
	v.AlternateNames = []string(names)
	return v, nil
}

// classify：将驱动错误归类为包内哨兵错误，保留原始错误文本
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		switch {
		case pe.Code == "23505":
			return fmt.Errorf("%w: %s", ErrDuplicateKey, pe.Message)
		case pe.Code.Class() == "08", pe.Code.Class() == "53", pe.Code.Class() == "57":
			return fmt.Errorf("%w: %s", ErrUnavailable, pe.Message)
		}
		return err
	}
	var ne net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &ne) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
