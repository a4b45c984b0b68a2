package models

import "time"

// SolutionStatusCode identifies a solution grading state.
type SolutionStatusCode string

const (
	SolutionStatusUngraded SolutionStatusCode = "UNGRADED"
	SolutionStatusGraded   SolutionStatusCode = "GRADED"
	SolutionStatusReturned SolutionStatusCode = "RETURNED"
)

// SolutionStatus is a lookup row for solution states.
type SolutionStatus struct {
	ID   string             `db:"id" json:"id"`
	Code SolutionStatusCode `db:"code" json:"code"`
	Name string             `db:"name" json:"name"`
}

// Solution is a student's submitted answer to an assignment. Score and worker
// stay unset until a grader acts on the submission.
type Solution struct {
	ID           string     `db:"id" json:"id"`
	Content      string     `db:"content" json:"content"`
	SubmitTime   time.Time  `db:"submit_time" json:"submit_time"`
	Score        *int       `db:"score" json:"score,omitempty"`
	GradedTime   *time.Time `db:"graded_time" json:"graded_time,omitempty"`
	Feedback     *string    `db:"feedback" json:"feedback,omitempty"`
	AssignmentID string     `db:"assignment_id" json:"assignment_id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	WorkerID     *string    `db:"worker_id" json:"worker_id,omitempty"`
	StatusID     string     `db:"status_id" json:"status_id"`
}

// SolutionDetail enriches Solution with display fields for grading views.
type SolutionDetail struct {
	Solution
	StatusCode        SolutionStatusCode `db:"status_code" json:"status_code"`
	StatusName        string             `db:"status_name" json:"status_name"`
	AssignmentTitle   string             `db:"assignment_title" json:"assignment_title"`
	MaxScore          int                `db:"max_score" json:"max_score"`
	StudentLastName   string             `db:"student_last_name" json:"student_last_name"`
	StudentFirstName  string             `db:"student_first_name" json:"student_first_name"`
	StudentMiddleName string             `db:"student_middle_name" json:"student_middle_name,omitempty"`
}
