package models

// Group is a study group attached to a course.
type Group struct {
	ID              string `db:"id" json:"id"`
	Name            string `db:"name" json:"name"`
	StudentCount    int    `db:"student_count" json:"student_count"`
	MaxStudentCount int    `db:"max_student_count" json:"max_student_count"`
	CourseID        string `db:"course_id" json:"course_id"`
}

// GroupDetail enriches Group with the owning course name.
type GroupDetail struct {
	Group
	CourseName string `db:"course_name" json:"course_name"`
}
