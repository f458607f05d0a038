package models

import "time"

// Course is an immutable catalog entry for a course offering.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	Credits     int       `db:"credits" json:"credits"`
	Level       int       `db:"level" json:"level,omitempty"`
	Tags        []string  `db:"-" json:"tags,omitempty"`
	Prereqs     []string  `db:"-" json:"prereqs,omitempty"`
	Equivalents []string  `db:"-" json:"equivalents,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Search    string
	Tag       string
	MinLevel  int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
