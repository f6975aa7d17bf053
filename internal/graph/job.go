package graph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"world-api/internal/gazetteer"
)

// JobStatus：后台导入任务的最近状态
type JobStatus struct {
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"startedAt,omitempty"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Report     *Report   `json:"report,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Job：进程内单实例后台导入（服务启动导入与管理端触发共用）
type Job struct {
	b      *Builder
	open   func() (gazetteer.Source, error)
	onDone []func()
	log    *slog.Logger

	mu     sync.Mutex
	status JobStatus
	done   chan struct{}
}

type JobOption func(*Job)

// WithOnDone：每次任务结束（含失败）后调用，用于失效依赖图谱的缓存
func WithOnDone(f func()) JobOption {
	return func(j *Job) {
		if f != nil {
			j.onDone = append(j.onDone, f)
		}
	}
}

// NewJob：open 在每次启动时调用，以便数据文件更新后重新读取
func NewJob(b *Builder, open func() (gazetteer.Source, error), opts ...JobOption) *Job {
	j := &Job{b: b, open: open, log: b.log}
	for _, o := range opts {
		o(j)
	}
	return j
}

// Start：已有任务运行时返回 false
func (j *Job) Start(ctx context.Context) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Running {
		return false
	}
	j.status = JobStatus{Running: true, StartedAt: time.Now()}
	j.done = make(chan struct{})
	go j.run(ctx, j.done)
	return true
}

func (j *Job) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	var (
		rep Report
		err error
	)
	src, err := j.open()
	if err == nil {
		j.log.Info("ingest_job_begin")
		rep, err = j.b.Run(ctx, src)
	}
	j.mu.Lock()
	j.status.Running = false
	j.status.FinishedAt = time.Now()
	j.status.Report = &rep
	if err != nil {
		j.status.Error = err.Error()
	}
	j.mu.Unlock()
	for _, f := range j.onDone {
		f()
	}
	if err != nil {
		j.log.Error("ingest_job_error", "err", err)
		return
	}
	j.log.Info("ingest_job_done",
		"vertices", rep.Vertices.Inserted,
		"edges", rep.Edges.Inserted,
		"duration_ms", (rep.Vertices.Duration + rep.Edges.Duration).Milliseconds())
}

func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Wait：等待当前任务结束；无任务时立即返回
func (j *Job) Wait() {
	j.mu.Lock()
	done := j.done
	j.mu.Unlock()
	if done != nil {
		<-done
	}
}
