package graph

import (
	"context"
	"errors"
	"fmt"

	"world-api/internal/place"
	"world-api/internal/store"
)

// ErrParentUnresolved：父查找沿层级阶梯耗尽仍无结果
var ErrParentUnresolved = errors.New("parent unresolved")

// FindParent：父顶点回退查找，返回命中顶点与向上回退的层数
// 约束：沿固定层级阶梯迭代，层级严格变粗，必然终止；
// countries 缺失时依次尝试 cc2 备用国家代码；world 只做精确查找
func FindParent(ctx context.Context, g store.Graph, spec place.ParentSpec) (place.Vertex, int, error) {
	level, key := spec.Level, spec.Key
	steps := 0
	for {
		v, err := g.FindVertex(ctx, level, key)
		if err == nil {
			return v, steps, nil
		}
		if !store.IsNotFound(err) {
			return place.Vertex{}, steps, err
		}
		switch level {
		case place.World:
			return place.Vertex{}, steps, fmt.Errorf("%w: %s:%s", ErrParentUnresolved, level, key)
		case place.Countries:
			for _, alt := range spec.AltCountries {
				if alt == "" || alt == key {
					continue
				}
				v, err := g.FindVertex(ctx, place.Countries, alt)
				if err == nil {
					return v, steps, nil
				}
				if !store.IsNotFound(err) {
					return place.Vertex{}, steps, err
				}
			}
			return place.Vertex{}, steps, fmt.Errorf("%w: %s:%s", ErrParentUnresolved, level, key)
		}
		trimmed, ok := place.TrimKey(key)
		if !ok {
			return place.Vertex{}, steps, fmt.Errorf("%w: %s:%s", ErrParentUnresolved, level, key)
		}
		parent, _ := level.Parent()
		level, key = parent, trimmed
		steps++
	}
}
