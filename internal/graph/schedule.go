package graph

import (
	"context"
	"time"
)

// nextWeekdayAt：now 之后最近一次 weekday 的 hour 整点
func nextWeekdayAt(now time.Time, weekday time.Weekday, hour int) time.Time {
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	t := time.Date(now.Year(), now.Month(), now.Day()+days, hour, 0, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 7)
	}
	return t
}

// ScheduleWeekly：每周 weekday 的 hour 点（loc 时区）重新执行一次导入
// 约束：上一次仍在运行时跳过本轮；ctx 取消后停止调度
func ScheduleWeekly(ctx context.Context, j *Job, loc *time.Location, weekday time.Weekday, hour int) {
	if loc == nil {
		loc = time.UTC
	}
	go func() {
		for {
			next := nextWeekdayAt(time.Now().In(loc), weekday, hour)
			j.log.Info("ingest_scheduled", "next", next)
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			if !j.Start(ctx) {
				j.log.Warn("ingest_schedule_skipped", "reason", "already_running")
			}
		}
	}()
}
