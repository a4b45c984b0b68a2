package models

import "time"

// WorkerRoleCode is the stable identifier of a staff role. The display name
// lives on the WorkerRole row; authorization decisions use the code only.
type WorkerRoleCode string

const (
	WorkerRoleTeacher WorkerRoleCode = "TEACHER"
	WorkerRoleAdmin   WorkerRoleCode = "ADMIN"
)

// WorkerRole is a lookup row describing a staff role.
type WorkerRole struct {
	ID   string         `db:"id" json:"id"`
	Code WorkerRoleCode `db:"code" json:"code"`
	Name string         `db:"name" json:"name"`
}

// Worker is a staff principal (teacher or administrator).
type Worker struct {
	ID           string    `db:"id" json:"id"`
	LastName     string    `db:"last_name" json:"last_name"`
	FirstName    string    `db:"first_name" json:"first_name"`
	MiddleName   string    `db:"middle_name" json:"middle_name,omitempty"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RoleID       string    `db:"role_id" json:"role_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// WorkerDetail enriches Worker with its resolved role.
type WorkerDetail struct {
	Worker
	RoleCode WorkerRoleCode `db:"role_code" json:"role_code"`
	RoleName string         `db:"role_name" json:"role_name"`
}

// FullName renders the display name used in listings.
func (w Worker) FullName() string {
	name := w.LastName + " " + w.FirstName
	if w.MiddleName != "" {
		name += " " + w.MiddleName
	}
	return name
}
