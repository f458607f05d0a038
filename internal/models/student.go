package models

// StudentProfile is the snapshot of a student used when resolving remaining
// degree requirements. It is supplied by the caller per request and never
// persisted here.
type StudentProfile struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name,omitempty"`
	MajorIDs           []string           `json:"major_ids"`
	CatalogYear        string             `json:"catalog_year,omitempty"`
	CompletedCourseIDs []string           `json:"completed_course_ids"`
	Preferences        Preferences        `json:"preferences"`
	InterestTags       map[string]float64 `json:"interest_tags,omitempty"`
}
