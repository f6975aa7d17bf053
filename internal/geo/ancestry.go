package geo

import (
	"context"
	"errors"
	"fmt"

	"world-api/internal/metrics"
	"world-api/internal/place"
	"world-api/internal/store"
)

var (
	ErrBrokenChain = errors.New("broken containment chain")
	ErrCycle       = errors.New("containment cycle")
	ErrBranching   = errors.New("multiple parents")
)

// Traverser：沿包含边自锚点走到根
type Traverser struct {
	g store.Graph
}

func NewTraverser(g store.Graph) *Traverser { return &Traverser{g: g} }

// Ancestry：返回锚点在前、根在末的顶点序列
// 约束：长度不超过层级数；非根顶点没有出边、重复访问、多条出边均视为图谱不一致
func (t *Traverser) Ancestry(ctx context.Context, anchor place.Vertex) ([]place.Vertex, error) {
	out, err := t.walk(ctx, anchor)
	if err != nil {
		kind := "store"
		switch {
		case errors.Is(err, ErrBrokenChain):
			kind = "broken_chain"
		case errors.Is(err, ErrCycle):
			kind = "cycle"
		case errors.Is(err, ErrBranching):
			kind = "branching"
		}
		metrics.TraversalErrorsTotal.WithLabelValues(kind).Inc()
	}
	return out, err
}

func (t *Traverser) walk(ctx context.Context, anchor place.Vertex) ([]place.Vertex, error) {
	bound := len(place.Levels)
	out := []place.Vertex{anchor}
	seen := map[place.Ref]bool{anchor.Ref(): true}
	cur := anchor
	for {
		next, err := t.g.Outbound(ctx, cur.Ref())
		if err != nil {
			return nil, fmt.Errorf("outbound %s: %w", cur.Ref(), err)
		}
		switch len(next) {
		case 0:
			if cur.Level == place.World && cur.GeonameID == place.RootKey {
				return out, nil
			}
			return nil, fmt.Errorf("%w: %s has no parent", ErrBrokenChain, cur.Ref())
		case 1:
		default:
			return nil, fmt.Errorf("%w: %s has %d", ErrBranching, cur.Ref(), len(next))
		}
		cur = next[0]
		if seen[cur.Ref()] {
			return nil, fmt.Errorf("%w: revisited %s", ErrCycle, cur.Ref())
		}
		if len(out) >= bound {
			return nil, fmt.Errorf("%w: exceeded %d vertices", ErrCycle, bound)
		}
		seen[cur.Ref()] = true
		out = append(out, cur)
	}
}
