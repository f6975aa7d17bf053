// 包 store：地名图谱的存储契约与实现（PostgreSQL / 内存）
package store

import (
	"context"
	"errors"

	"world-api/internal/place"
)

var (
	// ErrNotFound：按键查找或近邻查询无结果
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey：违反唯一约束（顶点键重复或子顶点已有出边）
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrUnavailable：存储因基础设施原因拒绝操作
	ErrUnavailable = errors.New("store unavailable")
	// ErrLocked：已有导入任务持有锁
	ErrLocked = errors.New("ingest already running")
)

// Graph：图谱存储契约
// 约束：每个层级是独立分区；顶点插入后不更新；边为子→父，每个子顶点至多一条出边
type Graph interface {
	// InsertVertex：唯一键冲突返回 ErrDuplicateKey
	InsertVertex(ctx context.Context, v place.Vertex) error
	// FindVertex：层级内按 geonameId 精确查找
	FindVertex(ctx context.Context, level place.Level, key string) (place.Vertex, error)
	// Nearest：半径（米）内距离最近的一个顶点；无结果返回 ErrNotFound
	Nearest(ctx context.Context, level place.Level, lat, lon, radiusM float64) (place.Vertex, error)
	// InsertEdge：子顶点已有出边时返回 ErrDuplicateKey
	InsertEdge(ctx context.Context, from, to place.Ref) error
	// Outbound：出边扩展（子→父）
	Outbound(ctx context.Context, from place.Ref) ([]place.Vertex, error)
	// SearchNames：别名全文检索，按人口降序
	SearchNames(ctx context.Context, level place.Level, term string, limit int) ([]place.Vertex, error)
	Ping(ctx context.Context) error
}

// IngestLocker：可选能力，保证同一图谱同时至多一个导入任务
type IngestLocker interface {
	TryLockIngest(ctx context.Context) (unlock func(), err error)
}

func IsDuplicate(err error) bool { return errors.Is(err, ErrDuplicateKey) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
