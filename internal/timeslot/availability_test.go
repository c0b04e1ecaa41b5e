package timeslot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeSlotsEmptyDay(t *testing.T) {
	slots := FreeSlots(nil, "08:00", "20:00")

	require.Len(t, slots, 1)
	assert.Equal(t, FreeSlot{Start: "08:00", End: "20:00", DurationMinutes: 720, Duration: "12h"}, slots[0])
}

func TestFreeSlotsGaps(t *testing.T) {
	occupied := []Interval{
		{Start: "10:00", End: "11:00"},
		{Start: "08:00", End: "09:00"},
		{Start: "09:00", End: "09:30"},
		{Start: "19:00", End: "21:00"},
	}

	slots := FreeSlots(occupied, "08:00", "20:00")

	require.Len(t, slots, 2)
	assert.Equal(t, "09:30", slots[0].Start)
	assert.Equal(t, "10:00", slots[0].End)
	assert.Equal(t, "30m", slots[0].Duration)
	assert.Equal(t, "11:00", slots[1].Start)
	assert.Equal(t, "19:00", slots[1].End)
}

func TestFreeSlotsFullyBooked(t *testing.T) {
	slots := FreeSlots([]Interval{{Start: "07:00", End: "21:00"}}, "08:00", "20:00")
	assert.Empty(t, slots)
}

func TestFreeSlotsPartitionWindow(t *testing.T) {
	sets := [][]Interval{
		{{Start: "08:30", End: "09:15"}, {Start: "09:00", End: "10:00"}, {Start: "12:00", End: "12:30"}},
		{{Start: "08:00", End: "20:00"}},
		{{Start: "19:59", End: "20:00"}, {Start: "08:00", End: "08:01"}},
		{},
	}
	for _, occupied := range sets {
		slots := FreeSlots(occupied, "08:00", "20:00")

		covered := Merge(occupied)
		for _, slot := range slots {
			covered = append(covered, Interval{Start: slot.Start, End: slot.End})
		}
		union := Merge(covered)
		require.Len(t, union, 1)
		assert.Equal(t, Interval{Start: "08:00", End: "20:00"}, union[0])

		for i := 1; i < len(slots); i++ {
			assert.True(t, Before(slots[i-1].End, slots[i].Start), "free slots must be disjoint and maximal")
		}
	}
}

func TestFreeSlotsIgnoresInvalidIntervals(t *testing.T) {
	slots := FreeSlots([]Interval{{Start: "bad", End: "10:00"}, {Start: "11:00", End: "11:00"}}, "08:00", "12:00")
	require.Len(t, slots, 1)
	assert.Equal(t, 240, TotalFreeMinutes(slots))
}

func TestBusinessHoursWeekdays(t *testing.T) {
	bh := DefaultBusinessHours()

	start, end, err := bh.For("monday")
	require.NoError(t, err)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "20:00", end)

	_, _, err = bh.For("Saturday")
	assert.True(t, errors.Is(err, ErrNoBusinessHours))

	_, _, err = bh.For("Someday")
	assert.Error(t, err)
}

func TestBusinessHoursWeekendPolicies(t *testing.T) {
	open, err := NewBusinessHours("8", "18", WeekendOpen)
	require.NoError(t, err)
	start, end, err := open.For("Sunday")
	require.NoError(t, err)
	assert.Equal(t, "00:00", start)
	assert.Equal(t, "23:59", end)

	weekday, err := NewBusinessHours("07:30", "17:00", WeekendWeekday)
	require.NoError(t, err)
	start, end, err = weekday.For("Saturday")
	require.NoError(t, err)
	assert.Equal(t, "07:30", start)
	assert.Equal(t, "17:00", end)
}

func TestNewBusinessHoursValidation(t *testing.T) {
	_, err := NewBusinessHours("20:00", "08:00", WeekendReject)
	assert.Error(t, err)
	_, err = NewBusinessHours("08:00", "20:00", "sometimes")
	assert.Error(t, err)
	bh, err := NewBusinessHours("08:00", "20:00", "")
	require.NoError(t, err)
	assert.Equal(t, WeekendReject, bh.Policy())
}
