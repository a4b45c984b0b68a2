package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// WorkerRepository handles persistence of staff accounts.
type WorkerRepository struct {
	db *sqlx.DB
}

// NewWorkerRepository constructs the repository.
func NewWorkerRepository(db *sqlx.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// Create persists a new worker record.
func (r *WorkerRepository) Create(ctx context.Context, worker *models.Worker) error {
	if worker.ID == "" {
		worker.ID = uuid.NewString()
	}
	if worker.CreatedAt.IsZero() {
		worker.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO workers (id, last_name, first_name, middle_name, email, password_hash, role_id, created_at)
        VALUES (:id, :last_name, :first_name, :middle_name, :email, :password_hash, :role_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, worker); err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	return nil
}

// FindByID returns a worker with the resolved role.
func (r *WorkerRepository) FindByID(ctx context.Context, id string) (*models.WorkerDetail, error) {
	const query = `SELECT w.id, w.last_name, w.first_name, w.middle_name, w.email, w.password_hash, w.role_id, w.created_at,
        r.code AS role_code, r.name AS role_name
        FROM workers w
        JOIN worker_roles r ON r.id = w.role_id
        WHERE w.id = $1`
	var worker models.WorkerDetail
	if err := r.db.GetContext(ctx, &worker, query, id); err != nil {
		return nil, err
	}
	return &worker, nil
}

// FindByEmail returns a worker with the resolved role by email.
func (r *WorkerRepository) FindByEmail(ctx context.Context, email string) (*models.WorkerDetail, error) {
	const query = `SELECT w.id, w.last_name, w.first_name, w.middle_name, w.email, w.password_hash, w.role_id, w.created_at,
        r.code AS role_code, r.name AS role_name
        FROM workers w
        JOIN worker_roles r ON r.id = w.role_id
        WHERE w.email = $1`
	var worker models.WorkerDetail
	if err := r.db.GetContext(ctx, &worker, query, email); err != nil {
		return nil, err
	}
	return &worker, nil
}

// List returns workers with resolved roles ordered by name.
func (r *WorkerRepository) List(ctx context.Context, page, size int) ([]models.WorkerDetail, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT w.id, w.last_name, w.first_name, w.middle_name, w.email, w.password_hash, w.role_id, w.created_at,
        r.code AS role_code, r.name AS role_name
        FROM workers w
        JOIN worker_roles r ON r.id = w.role_id
        ORDER BY w.last_name, w.first_name LIMIT %d OFFSET %d`, size, offset)
	var workers []models.WorkerDetail
	if err := r.db.SelectContext(ctx, &workers, query); err != nil {
		return nil, 0, fmt.Errorf("list workers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM workers"); err != nil {
		return nil, 0, fmt.Errorf("count workers: %w", err)
	}
	return workers, total, nil
}
