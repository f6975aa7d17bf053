// 包 graph：两遍导入构建地名图谱（第一遍顶点，第二遍包含边）
package graph

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"world-api/internal/gazetteer"
	"world-api/internal/logger"
	"world-api/internal/place"
	"world-api/internal/store"
)

const (
	defaultWorkers = 4
	progressEvery  = 100000
)

// Builder：图谱导入器
// 约束：同一图谱同时只允许一个 Run；单遍内按键分片并行处理，同键记录保持源顺序；两遍之间为全量屏障
type Builder struct {
	g       store.Graph
	workers int
	log     *slog.Logger
}

type Option func(*Builder)

// WithWorkers：单遍内并行写入的协程（分片）数，小于 1 时按 1
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n < 1 {
			n = 1
		}
		b.workers = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

func NewBuilder(g store.Graph, opts ...Option) *Builder {
	b := &Builder{g: g, workers: defaultWorkers}
	for _, o := range opts {
		o(b)
	}
	if b.log == nil {
		b.log = logger.L()
	}
	return b
}

// Run：确保根顶点存在，然后依次执行顶点遍与边遍
// 异常：单条记录的失败只记录日志与计数；仅数据源读取错误、上下文取消或导入锁冲突会返回错误
func (b *Builder) Run(ctx context.Context, src gazetteer.Source) (Report, error) {
	var rep Report
	if lk, ok := b.g.(store.IngestLocker); ok {
		unlock, err := lk.TryLockIngest(ctx)
		if err != nil {
			return rep, fmt.Errorf("ingest lock: %w", err)
		}
		defer unlock()
	}
	if err := b.EnsureRoot(ctx); err != nil {
		return rep, err
	}
	var err error
	rep.Vertices, err = b.VertexPass(ctx, src)
	if err != nil {
		return rep, fmt.Errorf("vertex pass: %w", err)
	}
	rep.Edges, err = b.EdgePass(ctx, src)
	if err != nil {
		return rep, fmt.Errorf("edge pass: %w", err)
	}
	return rep, nil
}

// EnsureRoot：创建根顶点 world；已存在时忽略
func (b *Builder) EnsureRoot(ctx context.Context) error {
	err := b.g.InsertVertex(ctx, place.Root())
	switch {
	case err == nil:
		b.log.Info("root_created")
	case store.IsDuplicate(err):
		b.log.Debug("root_exists")
	default:
		return fmt.Errorf("create root: %w", err)
	}
	return nil
}

// VertexPass：第一遍，插入全部顶点
func (b *Builder) VertexPass(ctx context.Context, src gazetteer.Source) (PassStats, error) {
	return b.pass(ctx, "vertices", src, b.insertVertex)
}

// EdgePass：第二遍，为每个顶点连接唯一的父顶点
// 约束：必须在 VertexPass 对整个数据源完成之后执行
func (b *Builder) EdgePass(ctx context.Context, src gazetteer.Source) (PassStats, error) {
	return b.pass(ctx, "edges", src, b.insertEdge)
}

type handler func(ctx context.Context, c *counters, rec gazetteer.Record, d place.Derivation)

func (b *Builder) pass(ctx context.Context, name string, src gazetteer.Source, h handler) (PassStats, error) {
	start := time.Now()
	c := &counters{}
	b.log.Info("ingest_pass_begin", "pass", name, "workers", b.workers)

	// 同一 (level, key) 的记录总由同一协程按源顺序处理，重复记录以源中首条为准
	eg, egctx := errgroup.WithContext(ctx)
	queues := make([]chan item, b.workers)
	for i := range queues {
		queues[i] = make(chan item, 64)
	}
	eg.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		return src.Each(egctx, func(l gazetteer.Line) error {
			it, ok := b.prepare(name, c, l)
			if !ok {
				return nil
			}
			select {
			case queues[shard(it.d, len(queues))] <- it:
				return nil
			case <-egctx.Done():
				return egctx.Err()
			}
		})
	})
	for _, q := range queues {
		eg.Go(func() error {
			for it := range q {
				if egctx.Err() != nil {
					continue
				}
				h(egctx, c, it.rec, it.d)
			}
			return nil
		})
	}
	err := eg.Wait()

	st := c.snapshot(name, time.Since(start))
	st.export()
	b.log.Info("ingest_pass_done",
		"pass", name,
		"records", st.Records,
		"malformed", st.Malformed,
		"ignored", st.Ignored,
		"inserted", st.Inserted,
		"duplicates", st.Duplicates,
		"store_errors", st.StoreErrors,
		"child_missing", st.ChildMissing,
		"parent_unresolved", st.ParentUnresolved,
		"fallbacks", st.Fallbacks,
		"duration_ms", st.Duration.Milliseconds(),
	)
	return st, err
}

type item struct {
	rec gazetteer.Record
	d   place.Derivation
}

// prepare：解析并推导键；畸形与不参与建图的记录在此计数并丢弃
func (b *Builder) prepare(pass string, c *counters, l gazetteer.Line) (item, bool) {
	if n := c.records.Add(1); n%progressEvery == 0 {
		b.log.Info("ingest_progress", "pass", pass, "records", n)
	}
	rec, err := gazetteer.ParseLine(l.Text)
	if err != nil {
		c.malformed.Add(1)
		b.log.Debug("record_malformed", "file", l.File, "line", l.No, "err", err)
		return item{}, false
	}
	d, err := place.Derive(rec.Codes())
	if err != nil {
		c.ignored.Add(1)
		return item{}, false
	}
	return item{rec: rec, d: d}, true
}

func shard(d place.Derivation, n int) int {
	if n == 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(d.Level))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(d.Key))
	return int(h.Sum32() % uint32(n))
}

func (b *Builder) insertVertex(ctx context.Context, c *counters, rec gazetteer.Record, d place.Derivation) {
	v := rec.Vertex(d.Level, d.Key)
	err := b.g.InsertVertex(ctx, v)
	switch {
	case err == nil:
		c.inserted.Add(1)
	case store.IsDuplicate(err):
		c.duplicates.Add(1)
		b.log.Warn("vertex_duplicate", "level", v.Level, "geoname_id", v.GeonameID, "raw_id", rec.ID, "vertex", v, "err", err)
	default:
		c.storeErrors.Add(1)
		b.log.Error("vertex_insert_error", "level", v.Level, "geoname_id", v.GeonameID, "raw_id", rec.ID, "vertex", v, "err", err)
	}
}

func (b *Builder) insertEdge(ctx context.Context, c *counters, rec gazetteer.Record, d place.Derivation) {
	child, err := b.g.FindVertex(ctx, d.Level, d.Key)
	if err != nil {
		if store.IsNotFound(err) {
			c.childMissing.Add(1)
		} else {
			c.storeErrors.Add(1)
		}
		b.log.Error("edge_child_lookup_error", "level", d.Level, "geoname_id", d.Key, "raw_id", rec.ID, "err", err)
		return
	}
	parent, steps, err := FindParent(ctx, b.g, d.Parent)
	if err != nil {
		if errors.Is(err, ErrParentUnresolved) {
			c.parentUnresolved.Add(1)
		} else {
			c.storeErrors.Add(1)
		}
		b.log.Error("edge_parent_lookup_error",
			"level", d.Level, "geoname_id", d.Key,
			"parent_level", d.Parent.Level, "parent_geoname_id", d.Parent.Key,
			"raw_id", rec.ID, "err", err)
		return
	}
	if steps > 0 || parent.GeonameID != d.Parent.Key {
		c.fallbacks.Add(1)
		b.log.Debug("edge_parent_fallback",
			"geoname_id", d.Key, "wanted", d.Parent.Key, "wanted_level", d.Parent.Level,
			"found", parent.GeonameID, "found_level", parent.Level)
	}
	err = b.g.InsertEdge(ctx, child.Ref(), parent.Ref())
	switch {
	case err == nil:
		c.inserted.Add(1)
	case store.IsDuplicate(err):
		c.duplicates.Add(1)
		b.log.Debug("edge_duplicate", "from", child.Ref().String(), "to", parent.Ref().String())
	default:
		c.storeErrors.Add(1)
		b.log.Error("edge_insert_error", "from", child.Ref().String(), "to", parent.Ref().String(), "err", err)
	}
}
