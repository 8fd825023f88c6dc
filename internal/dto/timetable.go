package dto

import "github.com/akademia-id/timetable-api/internal/models"

// EntryView is a timetable entry decorated with display names resolved
// through the reference lookups.
type EntryView struct {
	ID          string           `json:"id"`
	TimetableID string           `json:"timetableId"`
	ClassID     string           `json:"classId"`
	ClassName   string           `json:"className,omitempty"`
	SubjectID   string           `json:"subjectId"`
	SubjectName string           `json:"subjectName,omitempty"`
	TeacherID   *string          `json:"teacherId,omitempty"`
	TeacherName string           `json:"teacherName,omitempty"`
	PeriodID    string           `json:"periodId"`
	PeriodName  string           `json:"periodName,omitempty"`
	StartTime   string           `json:"startTime,omitempty"`
	EndTime     string           `json:"endTime,omitempty"`
	DayOfWeek   models.DayOfWeek `json:"dayOfWeek"`
	RoomNumber  *string          `json:"roomNumber,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// GridCell is one (day, period) intersection of the weekly grid. Entry is
// set when a class filter resolves the cell to a single entry; otherwise
// Entries carries every class occupying the slot.
type GridCell struct {
	PeriodID   string      `json:"periodId"`
	PeriodName string      `json:"periodName"`
	StartTime  string      `json:"startTime"`
	EndTime    string      `json:"endTime"`
	Entry      *EntryView  `json:"entry,omitempty"`
	Entries    []EntryView `json:"entries,omitempty"`
}

// GridDay is one weekday column of the grid, periods in display order.
type GridDay struct {
	Day   models.DayOfWeek `json:"day"`
	Cells []GridCell       `json:"cells"`
}

// WeeklyGridResponse is the full day-by-period view of a timetable.
type WeeklyGridResponse struct {
	TimetableID string    `json:"timetableId"`
	ClassID     string    `json:"classId,omitempty"`
	TeacherID   string    `json:"teacherId,omitempty"`
	Days        []GridDay `json:"days"`
}

// DaySchedule is an ordered entry list for one weekday.
type DaySchedule struct {
	Day     models.DayOfWeek `json:"day"`
	Entries []EntryView      `json:"entries"`
}

// ClassScheduleResponse is the per-class weekly schedule.
type ClassScheduleResponse struct {
	TimetableID string        `json:"timetableId"`
	ClassID     string        `json:"classId"`
	ClassName   string        `json:"className,omitempty"`
	Days        []DaySchedule `json:"days"`
}

// TeacherScheduleResponse is the per-teacher weekly schedule with that
// teacher's load statistics.
type TeacherScheduleResponse struct {
	TimetableID string                `json:"timetableId"`
	TeacherID   string                `json:"teacherId"`
	TeacherName string                `json:"teacherName,omitempty"`
	Days        []DaySchedule         `json:"days"`
	Stats       ResourceUtilizationRow `json:"stats"`
}

// ConflictGroup pairs an entry with every other entry it collides with on
// one axis. An entry appears at most once per axis.
type ConflictGroup struct {
	Entry           models.TimetableEntry   `json:"entry"`
	ConflictingWith []models.TimetableEntry `json:"conflictingWith"`
}

// ConflictReport groups pairwise conflicts of a timetable by axis.
// TotalConflicts sums group counts across axes; an entry conflicting on
// both the teacher and room axes counts twice.
type ConflictReport struct {
	TimetableID      string          `json:"timetableId"`
	TeacherConflicts []ConflictGroup `json:"teacherConflicts"`
	RoomConflicts    []ConflictGroup `json:"roomConflicts"`
	ClassConflicts   []ConflictGroup `json:"classConflicts"`
	TotalConflicts   int             `json:"totalConflicts"`
}

// ResourceUtilizationRow reports used period slots against the global
// active-period count for one teacher or class.
type ResourceUtilizationRow struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	UsedPeriods int     `json:"usedPeriods"`
	Percentage  float64 `json:"percentage"`
}

// PeriodUtilizationRow reports consumption of a single period.
type PeriodUtilizationRow struct {
	PeriodID      string           `json:"periodId"`
	PeriodName    string           `json:"periodName,omitempty"`
	DayOfWeek     models.DayOfWeek `json:"dayOfWeek"`
	EntryCount    int              `json:"entryCount"`
	DistinctClass int              `json:"distinctClasses"`
}

// RoomUtilizationRow reports bookings for one room number.
type RoomUtilizationRow struct {
	RoomNumber    string `json:"roomNumber"`
	UsageCount    int    `json:"usageCount"`
	DistinctClass int    `json:"distinctClasses"`
}

// UtilizationResponse aggregates slot consumption per teacher, class,
// period and room for one timetable.
type UtilizationResponse struct {
	TimetableID        string                  `json:"timetableId"`
	TotalActivePeriods int                     `json:"totalActivePeriods"`
	TotalEntries       int                     `json:"totalEntries"`
	Teachers           []ResourceUtilizationRow `json:"teachers"`
	Classes            []ResourceUtilizationRow `json:"classes"`
	Periods            []PeriodUtilizationRow  `json:"periods"`
	Rooms              []RoomUtilizationRow    `json:"rooms"`
}

// CopyTimetableResponse returns the clone and how many entries it carried.
type CopyTimetableResponse struct {
	Timetable     models.Timetable `json:"timetable"`
	EntriesCopied int              `json:"entriesCopied"`
}

// BulkPlaceResponse summarises an atomic bulk insert.
type BulkPlaceResponse struct {
	Created int `json:"created"`
}
