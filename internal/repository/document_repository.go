package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// DocumentRepository handles persistence of uploaded file metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create persists a new document record.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, file_name, content_type, size_bytes, storage_path, course_id, material_id, uploaded_by, uploaded_at)
        VALUES (:id, :file_name, :content_type, :size_bytes, :storage_path, :course_id, :material_id, :uploaded_by, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID returns a document by its ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT id, file_name, content_type, size_bytes, storage_path, course_id, material_id, uploaded_by, uploaded_at
        FROM documents WHERE id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByCourse returns documents attached to a course.
func (r *DocumentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Document, error) {
	const query = `SELECT id, file_name, content_type, size_bytes, storage_path, course_id, material_id, uploaded_by, uploaded_at
        FROM documents WHERE course_id = $1 ORDER BY uploaded_at DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, courseID); err != nil {
		return nil, fmt.Errorf("list course documents: %w", err)
	}
	return docs, nil
}

// ListByMaterial returns documents attached to a material.
func (r *DocumentRepository) ListByMaterial(ctx context.Context, materialID string) ([]models.Document, error) {
	const query = `SELECT id, file_name, content_type, size_bytes, storage_path, course_id, material_id, uploaded_by, uploaded_at
        FROM documents WHERE material_id = $1 ORDER BY uploaded_at DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, materialID); err != nil {
		return nil, fmt.Errorf("list material documents: %w", err)
	}
	return docs, nil
}

// ListByUploader returns documents uploaded by a principal.
func (r *DocumentRepository) ListByUploader(ctx context.Context, uploaderID string) ([]models.Document, error) {
	const query = `SELECT id, file_name, content_type, size_bytes, storage_path, course_id, material_id, uploaded_by, uploaded_at
        FROM documents WHERE uploaded_by = $1 ORDER BY uploaded_at DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, uploaderID); err != nil {
		return nil, fmt.Errorf("list uploader documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
