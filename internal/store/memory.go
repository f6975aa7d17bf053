package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"world-api/internal/place"
)

// Memory：进程内图谱存储
// 约束：读写由 RWMutex 保护；空间索引按层级惰性重建（插入后首次近邻查询时）
type Memory struct {
	mu       sync.RWMutex
	vertices map[place.Level]map[string]place.Vertex
	edges    map[place.Ref]place.Ref
	kd       map[place.Level]*kdNode
	dirty    map[place.Level]bool
	ingest   sync.Mutex
}

func NewMemory() *Memory {
	m := &Memory{
		vertices: make(map[place.Level]map[string]place.Vertex),
		edges:    make(map[place.Ref]place.Ref),
		kd:       make(map[place.Level]*kdNode),
		dirty:    make(map[place.Level]bool),
	}
	for _, l := range place.Levels {
		m.vertices[l] = make(map[string]place.Vertex)
	}
	return m
}

func (m *Memory) InsertVertex(ctx context.Context, v place.Vertex) error {
	if !v.Level.Valid() {
		return fmt.Errorf("insert vertex %s: unknown level", v.Ref())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	part := m.vertices[v.Level]
	if _, ok := part[v.GeonameID]; ok {
		return fmt.Errorf("insert vertex %s: %w", v.Ref(), ErrDuplicateKey)
	}
	v.AlternateNames = append([]string(nil), v.AlternateNames...)
	part[v.GeonameID] = v
	m.dirty[v.Level] = true
	return nil
}

func (m *Memory) FindVertex(ctx context.Context, level place.Level, key string) (place.Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vertices[level][key]
	if !ok {
		return place.Vertex{}, fmt.Errorf("%s:%s: %w", level, key, ErrNotFound)
	}
	return v, nil
}

func (m *Memory) Nearest(ctx context.Context, level place.Level, lat, lon, radiusM float64) (place.Vertex, error) {
	root := m.index(level)
	v, d, ok := nearest(root, lat, lon)
	if !ok || d*1000 > radiusM {
		return place.Vertex{}, fmt.Errorf("nearest %s within %.0fm: %w", level, radiusM, ErrNotFound)
	}
	return v, nil
}

func (m *Memory) index(level place.Level) *kdNode {
	m.mu.RLock()
	if !m.dirty[level] {
		root := m.kd[level]
		m.mu.RUnlock()
		return root
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty[level] {
		part := m.vertices[level]
		vs := make([]place.Vertex, 0, len(part))
		for _, v := range part {
			vs = append(vs, v)
		}
		m.kd[level] = buildKD(vs, 0)
		m.dirty[level] = false
	}
	return m.kd[level]
}

func (m *Memory) InsertEdge(ctx context.Context, from, to place.Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vertices[from.Level][from.Key]; !ok {
		return fmt.Errorf("insert edge %s: child: %w", from, ErrNotFound)
	}
	if _, ok := m.vertices[to.Level][to.Key]; !ok {
		return fmt.Errorf("insert edge %s: parent %s: %w", from, to, ErrNotFound)
	}
	if _, ok := m.edges[from]; ok {
		return fmt.Errorf("insert edge %s -> %s: %w", from, to, ErrDuplicateKey)
	}
	m.edges[from] = to
	return nil
}

func (m *Memory) Outbound(ctx context.Context, from place.Ref) ([]place.Vertex, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	to, ok := m.edges[from]
	if !ok {
		return nil, nil
	}
	v, ok := m.vertices[to.Level][to.Key]
	if !ok {
		return nil, nil
	}
	return []place.Vertex{v}, nil
}

// SearchNames：大小写不敏感的别名分词匹配，所有词都需命中同一顶点
func (m *Memory) SearchNames(ctx context.Context, level place.Level, term string, limit int) ([]place.Vertex, error) {
	terms := strings.Fields(strings.ToLower(term))
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	var out []place.Vertex
	for _, v := range m.vertices[level] {
		if matchesAll(v.AlternateNames, terms) {
			out = append(out, v)
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Population != out[j].Population {
			return out[i].Population > out[j].Population
		}
		return out[i].GeonameID < out[j].GeonameID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesAll(names []string, terms []string) bool {
	tokens := make(map[string]bool)
	for _, n := range names {
		for _, tok := range strings.Fields(strings.ToLower(n)) {
			tokens[tok] = true
		}
	}
	for _, t := range terms {
		if !tokens[t] {
			return false
		}
	}
	return true
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) TryLockIngest(ctx context.Context) (func(), error) {
	if !m.ingest.TryLock() {
		return nil, ErrLocked
	}
	return m.ingest.Unlock, nil
}

// Counts：各层顶点数与边数
func (m *Memory) Counts() (map[place.Level]int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[place.Level]int, len(m.vertices))
	for l, part := range m.vertices {
		out[l] = len(part)
	}
	return out, len(m.edges)
}

// Edges：全部边的快照，供比较两次导入结果
func (m *Memory) Edges() map[place.Ref]place.Ref {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[place.Ref]place.Ref, len(m.edges))
	for k, v := range m.edges {
		out[k] = v
	}
	return out
}
