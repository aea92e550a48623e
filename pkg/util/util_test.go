package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInPlaceFilter(t *testing.T) {
	values := []int{1, 2, 3, 4, 5}
	InPlaceFilter(&values, func(v int) bool { return v%2 == 1 })

	assert.Equal(t, []int{1, 3, 5}, values)
}

func TestNormaliseTags(t *testing.T) {
	assert.Equal(t, []string{"bus", "rail"}, NormaliseTags([]string{" Bus", "RAIL", "bus", ""}))
	assert.Nil(t, NormaliseTags(nil))
}

func TestSameDay(t *testing.T) {
	berlin, _ := time.LoadLocation("Europe/Berlin")
	reference := time.Date(2025, 1, 10, 12, 0, 0, 0, berlin)

	assert.True(t, SameDay(time.Date(2025, 1, 9, 23, 30, 0, 0, time.UTC), reference))
	assert.False(t, SameDay(time.Date(2025, 1, 10, 23, 30, 0, 0, time.UTC), reference))
}

func TestISOWeekLabel(t *testing.T) {
	assert.Equal(t, "2026-W09", ISOWeekLabel(time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-W01", ISOWeekLabel(time.Date(2024, 12, 30, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-W52", ISOWeekLabel(time.Date(2025, 12, 24, 10, 0, 0, 0, time.UTC)))
}
