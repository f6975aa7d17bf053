package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextWeekdayAt(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+8", 8*3600)
	// 2026-10-14 为周三
	wed := time.Date(2026, 10, 14, 10, 0, 0, 0, loc)

	assert.Equal(t, time.Date(2026, 10, 19, 3, 0, 0, 0, loc), nextWeekdayAt(wed, time.Monday, 3))
	assert.Equal(t, time.Date(2026, 10, 14, 11, 0, 0, 0, loc), nextWeekdayAt(wed, time.Wednesday, 11))
	assert.Equal(t, time.Date(2026, 10, 21, 10, 0, 0, 0, loc), nextWeekdayAt(wed, time.Wednesday, 10))
	assert.Equal(t, time.Date(2026, 10, 21, 3, 0, 0, 0, loc), nextWeekdayAt(wed, time.Wednesday, 3))
}
