package models

import (
	"fmt"
	"strings"
)

// DayOfWeek is a weekday literal used by periods and timetable entries.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

// WeekDays lists the days in canonical display order. Grid and schedule
// projections iterate this slice rather than map keys so the ordering is
// stable regardless of storage order.
var WeekDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var dayOrdinals = func() map[DayOfWeek]int {
	m := make(map[DayOfWeek]int, len(WeekDays))
	for i, d := range WeekDays {
		m[d] = i
	}
	return m
}()

// ParseDayOfWeek normalises a raw weekday literal. Unknown values are
// rejected so they never reach conflict checks or grid grouping.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	day := DayOfWeek(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := dayOrdinals[day]; !ok {
		return "", fmt.Errorf("unknown day of week %q", raw)
	}
	return day, nil
}

// Ordinal returns the canonical position of the day within a week.
func (d DayOfWeek) Ordinal() int {
	if i, ok := dayOrdinals[d]; ok {
		return i
	}
	return len(WeekDays)
}

// Valid reports whether the literal is one of the seven known days.
func (d DayOfWeek) Valid() bool {
	_, ok := dayOrdinals[d]
	return ok
}
