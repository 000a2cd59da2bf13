// Package planner is the day-bucket scheduling engine behind the harvest
// board: it indexes reference data, enriches plans into cards, partitions them
// into per-day buckets and mediates drag moves between days.
package planner

import (
	"fmt"
	"time"
)

// DayKeyLayout is the bucket key format.
const DayKeyLayout = "2006-01-02"

const daysPerWeek = 7

// Calendar truncates instants to calendar days in one location.
type Calendar struct {
	location *time.Location
}

func NewCalendar(location *time.Location) Calendar {
	if location == nil {
		location = time.Local
	}
	return Calendar{location: location}
}

func (calendar Calendar) Location() *time.Location {
	if calendar.location == nil {
		return time.Local
	}
	return calendar.location
}

func (calendar Calendar) DayKey(t time.Time) string {
	return t.In(calendar.Location()).Format(DayKeyLayout)
}

// StartOfDay returns local midnight of the day t falls on.
func (calendar Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(calendar.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, calendar.Location())
}

// ParseDayKey returns local midnight of the given day key.
func (calendar Calendar) ParseDayKey(key string) (time.Time, error) {
	day, err := time.ParseInLocation(DayKeyLayout, key, calendar.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day key %q: %w", key, err)
	}
	return day, nil
}

// WeekStart returns local midnight of the first day of the week containing t.
func (calendar Calendar) WeekStart(t time.Time, firstDay time.Weekday) time.Time {
	day := calendar.StartOfDay(t)
	offset := (int(day.Weekday()) - int(firstDay) + daysPerWeek) % daysPerWeek
	return day.AddDate(0, 0, -offset)
}

// WeekDays returns the seven consecutive day keys starting at start.
func (calendar Calendar) WeekDays(start time.Time) []string {
	day := calendar.StartOfDay(start)
	keys := make([]string, 0, daysPerWeek)
	for i := 0; i < daysPerWeek; i++ {
		keys = append(keys, calendar.DayKey(day.AddDate(0, 0, i)))
	}
	return keys
}
