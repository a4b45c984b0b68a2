package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// StatusRepository resolves lookup tables for request, studying and solution
// states plus worker roles. Services match on codes; display names stay
// editable in the database.
type StatusRepository struct {
	db *sqlx.DB
}

// NewStatusRepository constructs the repository.
func NewStatusRepository(db *sqlx.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// RequestStatusByCode returns the request status row for a code.
func (r *StatusRepository) RequestStatusByCode(ctx context.Context, code models.RequestStatusCode) (*models.RequestStatus, error) {
	const query = `SELECT id, code, name FROM request_statuses WHERE code = $1`
	var status models.RequestStatus
	if err := r.db.GetContext(ctx, &status, query, code); err != nil {
		return nil, err
	}
	return &status, nil
}

// RequestStatusByID returns the request status row for an ID.
func (r *StatusRepository) RequestStatusByID(ctx context.Context, id string) (*models.RequestStatus, error) {
	const query = `SELECT id, code, name FROM request_statuses WHERE id = $1`
	var status models.RequestStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListRequestStatuses returns all request statuses.
func (r *StatusRepository) ListRequestStatuses(ctx context.Context) ([]models.RequestStatus, error) {
	const query = `SELECT id, code, name FROM request_statuses ORDER BY code`
	var statuses []models.RequestStatus
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list request statuses: %w", err)
	}
	return statuses, nil
}

// StudyingStatusByCode returns the studying status row for a code.
func (r *StatusRepository) StudyingStatusByCode(ctx context.Context, code models.StudyingStatusCode) (*models.StudyingStatus, error) {
	const query = `SELECT id, code, name FROM studying_statuses WHERE code = $1`
	var status models.StudyingStatus
	if err := r.db.GetContext(ctx, &status, query, code); err != nil {
		return nil, err
	}
	return &status, nil
}

// StudyingStatusByID returns the studying status row for an ID.
func (r *StatusRepository) StudyingStatusByID(ctx context.Context, id string) (*models.StudyingStatus, error) {
	const query = `SELECT id, code, name FROM studying_statuses WHERE id = $1`
	var status models.StudyingStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		return nil, err
	}
	return &status, nil
}

// SolutionStatusByCode returns the solution status row for a code.
func (r *StatusRepository) SolutionStatusByCode(ctx context.Context, code models.SolutionStatusCode) (*models.SolutionStatus, error) {
	const query = `SELECT id, code, name FROM solution_statuses WHERE code = $1`
	var status models.SolutionStatus
	if err := r.db.GetContext(ctx, &status, query, code); err != nil {
		return nil, err
	}
	return &status, nil
}

// WorkerRoleByID returns the worker role row for an ID.
func (r *StatusRepository) WorkerRoleByID(ctx context.Context, id string) (*models.WorkerRole, error) {
	const query = `SELECT id, code, name FROM worker_roles WHERE id = $1`
	var role models.WorkerRole
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		return nil, err
	}
	return &role, nil
}

// ListWorkerRoles returns all worker roles.
func (r *StatusRepository) ListWorkerRoles(ctx context.Context) ([]models.WorkerRole, error) {
	const query = `SELECT id, code, name FROM worker_roles ORDER BY code`
	var roles []models.WorkerRole
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("list worker roles: %w", err)
	}
	return roles, nil
}
