package models

import "time"

// RequestStatusCode is the stable identifier of a request state. Lifecycle
// decisions (approval side effects in particular) compare codes, never the
// administratively editable display name.
type RequestStatusCode string

const (
	RequestStatusPending  RequestStatusCode = "PENDING"
	RequestStatusApproved RequestStatusCode = "APPROVED"
	RequestStatusRejected RequestStatusCode = "REJECTED"
)

// RequestStatus is a lookup row for request states.
type RequestStatus struct {
	ID   string            `db:"id" json:"id"`
	Code RequestStatusCode `db:"code" json:"code"`
	Name string            `db:"name" json:"name"`
}

// Request is a student's application to enroll in a course. Student and course
// references are immutable after creation; worker and group are set by staff
// decisions, and the group can be cleared without touching the status.
type Request struct {
	ID             string     `db:"id" json:"id"`
	CreateTime     time.Time  `db:"create_time" json:"create_time"`
	ProcessingTime *time.Time `db:"processing_time" json:"processing_time,omitempty"`
	RequestText    *string    `db:"request_text" json:"request_text,omitempty"`
	StudentID      string     `db:"student_id" json:"student_id"`
	CourseID       string     `db:"course_id" json:"course_id"`
	WorkerID       *string    `db:"worker_id" json:"worker_id,omitempty"`
	GroupID        *string    `db:"group_id" json:"group_id,omitempty"`
	StatusID       string     `db:"status_id" json:"status_id"`
}

// RequestDetail enriches Request with contextual info for listings.
type RequestDetail struct {
	Request
	StatusCode        RequestStatusCode `db:"status_code" json:"status_code"`
	StatusName        string            `db:"status_name" json:"status_name"`
	CourseName        string            `db:"course_name" json:"course_name"`
	StudentLastName   string            `db:"student_last_name" json:"student_last_name"`
	StudentFirstName  string            `db:"student_first_name" json:"student_first_name"`
	StudentMiddleName string            `db:"student_middle_name" json:"student_middle_name,omitempty"`
	GroupName         *string           `db:"group_name" json:"group_name,omitempty"`
}
