package models

import "time"

// Period is a reusable daily time slot periods are placed into.
// SortOrder drives display/iteration sequence within a day; it is not
// required to be contiguous or unique.
type Period struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"day_of_week"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PeriodFilter captures supported filters for listing periods.
type PeriodFilter struct {
	DayOfWeek string
	IsActive  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
