package models

import "time"

// CourseStatusCode identifies a course lifecycle state independent of the
// localizable display name.
type CourseStatusCode string

const (
	CourseStatusDraft    CourseStatusCode = "DRAFT"
	CourseStatusOpen     CourseStatusCode = "OPEN"
	CourseStatusArchived CourseStatusCode = "ARCHIVED"
)

// CourseStatus is a lookup row for course states.
type CourseStatus struct {
	ID   string           `db:"id" json:"id"`
	Code CourseStatusCode `db:"code" json:"code"`
	Name string           `db:"name" json:"name"`
}

// CourseCategory is a lookup row grouping courses by subject area.
type CourseCategory struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Course is an offered study programme.
type Course struct {
	ID               string     `db:"id" json:"id"`
	Name             string     `db:"name" json:"name"`
	Description      string     `db:"description" json:"description"`
	StudyDirection   string     `db:"study_direction" json:"study_direction"`
	StartDate        time.Time  `db:"start_date" json:"start_date"`
	EndDate          *time.Time `db:"end_date" json:"end_date,omitempty"`
	HoursCount       int        `db:"hours_count" json:"hours_count"`
	ResultCompetence string     `db:"result_competence" json:"result_competence"`
	CategoryID       string     `db:"category_id" json:"category_id"`
	StatusID         string     `db:"status_id" json:"status_id"`
}

// CourseDetail enriches Course with resolved category and status names.
type CourseDetail struct {
	Course
	CategoryName string           `db:"category_name" json:"category_name"`
	StatusCode   CourseStatusCode `db:"status_code" json:"status_code"`
	StatusName   string           `db:"status_name" json:"status_name"`
}

// CourseShort is the compact projection used by student-facing listings.
type CourseShort struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	StudyDirection string    `db:"study_direction" json:"study_direction"`
	StartDate      time.Time `db:"start_date" json:"start_date"`
	HoursCount     int       `db:"hours_count" json:"hours_count"`
}
