package models

import "time"

// Document is an uploaded file attached to a course or a material. The blob
// lives on local storage under StoragePath; rows only carry metadata.
type Document struct {
	ID           string    `db:"id" json:"id"`
	FileName     string    `db:"file_name" json:"file_name"`
	ContentType  string    `db:"content_type" json:"content_type"`
	SizeBytes    int64     `db:"size_bytes" json:"size_bytes"`
	StoragePath  string    `db:"storage_path" json:"-"`
	CourseID     *string   `db:"course_id" json:"course_id,omitempty"`
	MaterialID   *string   `db:"material_id" json:"material_id,omitempty"`
	UploadedBy   string    `db:"uploaded_by" json:"uploaded_by"`
	UploadedAt   time.Time `db:"uploaded_at" json:"uploaded_at"`
}
