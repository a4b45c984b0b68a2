package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dev-lms/lms-api/internal/models"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
	"github.com/dev-lms/lms-api/pkg/storage"
)

// UploadDocumentInput carries a multipart upload.
type UploadDocumentInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	CourseID    *string
	MaterialID  *string
	Reader      io.Reader
}

// DocumentDownload bundles an open file with its metadata.
type DocumentDownload struct {
	Document *models.Document
	File     *os.File
}

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Document, error)
	ListByMaterial(ctx context.Context, materialID string) ([]models.Document, error)
	ListByUploader(ctx context.Context, uploaderID string) ([]models.Document, error)
	Delete(ctx context.Context, id string) error
}

// DocumentConfig bounds what uploads are accepted.
type DocumentConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// DocumentService stores uploaded files on local disk and hands out signed
// download tokens.
type DocumentService struct {
	documents documentRepository
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	config    DocumentConfig
	logger    *zap.Logger
}

// NewDocumentService constructs a DocumentService instance.
func NewDocumentService(documents documentRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, config DocumentConfig, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{documents: documents, store: store, signer: signer, config: config, logger: logger}
}

// Upload stores the file and records its metadata. Size and MIME limits come
// from config.
func (s *DocumentService) Upload(ctx context.Context, uploaderID string, input UploadDocumentInput) (*models.Document, error) {
	if input.FileName == "" || input.Reader == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if s.config.MaxFileSizeBytes > 0 && input.SizeBytes > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum allowed size")
	}
	if len(s.config.AllowedMIMEs) > 0 && !s.mimeAllowed(input.ContentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
	}

	id := uuid.NewString()
	relPath := filepath.Join(time.Now().UTC().Format("2006/01"), fmt.Sprintf("%s%s", id, filepath.Ext(input.FileName)))
	if _, err := s.store.SaveStream(relPath, input.Reader); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	doc := &models.Document{
		ID:          id,
		FileName:    input.FileName,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		StoragePath: relPath,
		CourseID:    input.CourseID,
		MaterialID:  input.MaterialID,
		UploadedBy:  uploaderID,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if cleanupErr := s.store.Delete(relPath); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", relPath), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}

	s.logger.Info("document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("file_name", doc.FileName),
		zap.Int64("size_bytes", doc.SizeBytes))
	return doc, nil
}

// SignedDownloadToken returns a short-lived token for fetching the document.
func (s *DocumentService) SignedDownloadToken(ctx context.Context, documentID string) (string, time.Time, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.StoragePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return token, expiresAt, nil
}

// Download opens the stored file for a document. The caller owns the file
// handle.
func (s *DocumentService) Download(ctx context.Context, documentID string) (*DocumentDownload, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	file, err := s.store.Open(doc.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open stored file")
	}
	return &DocumentDownload{Document: doc, File: file}, nil
}

// ListByCourse returns documents attached to a course.
func (s *DocumentService) ListByCourse(ctx context.Context, courseID string) ([]models.Document, error) {
	docs, err := s.documents.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// ListByMaterial returns documents attached to a material.
func (s *DocumentService) ListByMaterial(ctx context.Context, materialID string) ([]models.Document, error) {
	docs, err := s.documents.ListByMaterial(ctx, materialID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// ListByUploader returns documents uploaded by a principal.
func (s *DocumentService) ListByUploader(ctx context.Context, uploaderID string) ([]models.Document, error) {
	docs, err := s.documents.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Delete removes the metadata row and the stored file.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if err := s.documents.Delete(ctx, documentID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.store.Delete(doc.StoragePath); err != nil {
		s.logger.Warn("failed to remove stored file", zap.String("path", doc.StoragePath), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) mimeAllowed(contentType string) bool {
	for _, allowed := range s.config.AllowedMIMEs {
		if allowed == contentType {
			return true
		}
	}
	return false
}
