package models

import "time"

// Day is a single-letter weekday code used throughout the catalog.
// Only Monday through Friday are valid meeting days.
type Day string

const (
	DayMonday    Day = "M"
	DayTuesday   Day = "T"
	DayWednesday Day = "W"
	DayThursday  Day = "R"
	DayFriday    Day = "F"
)

// DayName returns the human-readable weekday name for a day code.
// Unknown codes are returned unchanged.
func DayName(d Day) string {
	switch d {
	case DayMonday:
		return "Monday"
	case DayTuesday:
		return "Tuesday"
	case DayWednesday:
		return "Wednesday"
	case DayThursday:
		return "Thursday"
	case DayFriday:
		return "Friday"
	}
	return string(d)
}

// Meeting is a single weekly meeting of a section. Start and End are
// clock times in HH:MM form.
type Meeting struct {
	Day   Day    `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// Section is an immutable catalog entry for an offered section of a course.
// LinkedWith points at a partner section (e.g. a lab for a lecture) that must
// be scheduled together with this one.
type Section struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	Label      string    `db:"label" json:"label"`
	Instructor string    `db:"instructor" json:"instructor,omitempty"`
	Location   string    `db:"location" json:"location,omitempty"`
	Meetings   []Meeting `db:"-" json:"meetings"`
	Capacity   *int      `db:"capacity" json:"capacity,omitempty"`
	Enrolled   *int      `db:"enrolled" json:"enrolled,omitempty"`
	TermID     string    `db:"term_id" json:"term_id"`
	LinkedWith string    `db:"linked_with" json:"linked_with,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
