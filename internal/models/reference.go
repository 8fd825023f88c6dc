package models

// Reference records for entities owned by other parts of the platform.
// The scheduler only ever reads these through batch lookups; their full
// lifecycle lives elsewhere.

// ClassRef is the read-only view of a class the scheduler needs.
type ClassRef struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Grade    string `db:"grade" json:"grade"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// SubjectRef is the read-only view of a subject, including the class
// that owns it.
type SubjectRef struct {
	ID      string `db:"id" json:"id"`
	Code    string `db:"code" json:"code"`
	Name    string `db:"name" json:"name"`
	ClassID string `db:"class_id" json:"class_id"`
}

// TeacherRef is the read-only display identity of a teacher.
type TeacherRef struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Active   bool   `db:"active" json:"active"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
