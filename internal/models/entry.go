package models

import "time"

// TimetableEntry is one scheduled occupation of a period slot by a
// class/subject pair, optionally bound to a teacher and a room.
type TimetableEntry struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	PeriodID    string    `db:"period_id" json:"period_id"`
	DayOfWeek   DayOfWeek `db:"day_of_week" json:"day_of_week"`
	RoomNumber  *string   `db:"room_number" json:"room_number,omitempty"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EntryFilter captures filters for listing entries of a timetable.
type EntryFilter struct {
	TimetableID string
	ClassID     string
	TeacherID   string
	PeriodID    string
	DayOfWeek   string
	RoomNumber  string
	IsActive    *bool
}

// ConflictAxis identifies the dimension along which two entries collide.
type ConflictAxis string

const (
	ConflictAxisClass   ConflictAxis = "CLASS"
	ConflictAxisTeacher ConflictAxis = "TEACHER"
	ConflictAxisRoom    ConflictAxis = "ROOM"
)

// EntryConflict is a snapshot of an existing entry that blocks a placement.
type EntryConflict struct {
	EntryID     string       `json:"entry_id"`
	TimetableID string       `json:"timetable_id"`
	ClassID     string       `json:"class_id"`
	SubjectID   string       `json:"subject_id"`
	TeacherID   *string      `json:"teacher_id,omitempty"`
	PeriodID    string       `json:"period_id"`
	DayOfWeek   DayOfWeek    `json:"day_of_week"`
	RoomNumber  *string      `json:"room_number,omitempty"`
	Axis        ConflictAxis `json:"axis"`
}

// EntryConflictError is returned when a placement collides with an
// existing entry. Callers inspect Axis to render field-specific messages.
type EntryConflictError struct {
	Axis     ConflictAxis  `json:"axis"`
	Message  string        `json:"message"`
	Conflict EntryConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *EntryConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

// NewEntryConflict builds the conflict snapshot for an existing entry.
func NewEntryConflict(existing TimetableEntry, axis ConflictAxis) EntryConflict {
	return EntryConflict{
		EntryID:     existing.ID,
		TimetableID: existing.TimetableID,
		ClassID:     existing.ClassID,
		SubjectID:   existing.SubjectID,
		TeacherID:   existing.TeacherID,
		PeriodID:    existing.PeriodID,
		DayOfWeek:   existing.DayOfWeek,
		RoomNumber:  existing.RoomNumber,
		Axis:        axis,
	}
}
