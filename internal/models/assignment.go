package models

import "time"

// Assignment is a graded task published to a group.
type Assignment struct {
	ID          string     `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Deadline    *time.Time `db:"deadline" json:"deadline,omitempty"`
	MaxScore    int        `db:"max_score" json:"max_score"`
	GroupID     string     `db:"group_id" json:"group_id"`
	CreatedBy   string     `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// AssignmentDetail enriches Assignment with the group name and author.
type AssignmentDetail struct {
	Assignment
	GroupName        string `db:"group_name" json:"group_name"`
	AuthorLastName   string `db:"author_last_name" json:"author_last_name"`
	AuthorFirstName  string `db:"author_first_name" json:"author_first_name"`
	AuthorMiddleName string `db:"author_middle_name" json:"author_middle_name,omitempty"`
}
