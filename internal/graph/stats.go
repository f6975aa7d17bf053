package graph

import (
	"sync/atomic"
	"time"

	"world-api/internal/metrics"
)

// counters：单遍导入的并发计数器
type counters struct {
	records          atomic.Int64
	malformed        atomic.Int64
	ignored          atomic.Int64
	inserted         atomic.Int64
	duplicates       atomic.Int64
	storeErrors      atomic.Int64
	childMissing     atomic.Int64
	parentUnresolved atomic.Int64
	fallbacks        atomic.Int64
}

// PassStats：单遍导入结果快照
// 约束：vertex 遍中 ChildMissing/ParentUnresolved/Fallbacks 恒为 0
type PassStats struct {
	Pass             string        `json:"pass"`
	Records          int64         `json:"records"`
	Malformed        int64         `json:"malformed"`
	Ignored          int64         `json:"ignored"`
	Inserted         int64         `json:"inserted"`
	Duplicates       int64         `json:"duplicates"`
	StoreErrors      int64         `json:"storeErrors"`
	ChildMissing     int64         `json:"childMissing"`
	ParentUnresolved int64         `json:"parentUnresolved"`
	Fallbacks        int64         `json:"fallbacks"`
	Duration         time.Duration `json:"duration"`
}

func (c *counters) snapshot(pass string, d time.Duration) PassStats {
	return PassStats{
		Pass:             pass,
		Records:          c.records.Load(),
		Malformed:        c.malformed.Load(),
		Ignored:          c.ignored.Load(),
		Inserted:         c.inserted.Load(),
		Duplicates:       c.duplicates.Load(),
		StoreErrors:      c.storeErrors.Load(),
		ChildMissing:     c.childMissing.Load(),
		ParentUnresolved: c.parentUnresolved.Load(),
		Fallbacks:        c.fallbacks.Load(),
		Duration:         d,
	}
}

// export：写入 Prometheus 计数
func (s PassStats) export() {
	add := func(outcome string, n int64) {
		if n > 0 {
			metrics.IngestRecordsTotal.WithLabelValues(s.Pass, outcome).Add(float64(n))
		}
	}
	add("record", s.Records)
	add("malformed", s.Malformed)
	add("ignored", s.Ignored)
	add("inserted", s.Inserted)
	add("duplicate", s.Duplicates)
	add("store_error", s.StoreErrors)
	add("child_missing", s.ChildMissing)
	add("parent_unresolved", s.ParentUnresolved)
	add("fallback", s.Fallbacks)
	metrics.IngestPassDurationS.WithLabelValues(s.Pass).Observe(s.Duration.Seconds())
}

// Report：一次完整导入（两遍）的结果
type Report struct {
	Vertices PassStats `json:"vertices"`
	Edges    PassStats `json:"edges"`
}
