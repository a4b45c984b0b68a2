package models

import "time"

// StudyingStatusCode identifies a progress state.
type StudyingStatusCode string

const (
	StudyingStatusInProgress StudyingStatusCode = "IN_PROGRESS"
	StudyingStatusCompleted  StudyingStatusCode = "COMPLETED"
	StudyingStatusExpelled   StudyingStatusCode = "EXPELLED"
)

// StudyingStatus is a lookup row for progress states.
type StudyingStatus struct {
	ID   string             `db:"id" json:"id"`
	Code StudyingStatusCode `db:"code" json:"code"`
	Name string             `db:"name" json:"name"`
}

// StudyingProgress tracks completion of an approved request. Exactly one row
// may exist per request (unique constraint on request_id).
type StudyingProgress struct {
	ID                 string     `db:"id" json:"id"`
	RequestID          string     `db:"request_id" json:"request_id"`
	EducationStartDate time.Time  `db:"education_start_date" json:"education_start_date"`
	GraduationDate     *time.Time `db:"graduation_date" json:"graduation_date,omitempty"`
	FinalGrade         *int       `db:"final_grade" json:"final_grade,omitempty"`
	FinalExamResult    *int       `db:"final_exam_result" json:"final_exam_result,omitempty"`
	Percent            int        `db:"percent" json:"percent"`
	StatusID           string     `db:"status_id" json:"status_id"`
}

// ProgressView is the student-facing projection of a progress row.
type ProgressView struct {
	CourseID           string             `json:"course_id"`
	Percent            int                `json:"percent"`
	StatusCode         StudyingStatusCode `json:"status_code"`
	StatusName         string             `json:"status_name"`
	EducationStartDate time.Time          `json:"education_start_date"`
	GraduationDate     *time.Time         `json:"graduation_date,omitempty"`
}

// StudentProgressView pairs a student of a group with their progress.
type StudentProgressView struct {
	StudentID          string     `db:"student_id" json:"student_id"`
	StudentLastName    string     `db:"student_last_name" json:"student_last_name"`
	StudentFirstName   string     `db:"student_first_name" json:"student_first_name"`
	StudentMiddleName  string     `db:"student_middle_name" json:"student_middle_name,omitempty"`
	Email              string     `db:"email" json:"email"`
	Percent            int        `db:"percent" json:"percent"`
	StatusName         string     `db:"status_name" json:"status_name"`
	EducationStartDate time.Time  `db:"education_start_date" json:"education_start_date"`
	GraduationDate     *time.Time `db:"graduation_date" json:"graduation_date,omitempty"`
}
