package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/dev-lms/lms-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRequestRepositoryDecideApproveCreatesProgress(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	groupID := "grp-1"
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET worker_id = $2, group_id = $3, status_id = $4, processing_time = $5 WHERE id = $1")).
		WithArgs("req-1", "wrk-1", &groupID, "st-approved", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO studying_progress")).
		WithArgs(sqlmock.AnyArg(), "req-1", sqlmock.AnyArg(), nil, nil, nil, 0, "ss-in-progress").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	progress := &models.StudyingProgress{
		RequestID:          "req-1",
		EducationStartDate: now,
		Percent:            0,
		StatusID:           "ss-in-progress",
	}
	err := repo.Decide(context.Background(), DecideParams{
		RequestID:      "req-1",
		WorkerID:       "wrk-1",
		GroupID:        &groupID,
		StatusID:       "st-approved",
		ProcessingTime: now,
	}, true, progress)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDecideRejectSkipsProgress(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET worker_id = $2, group_id = $3, status_id = $4, processing_time = $5 WHERE id = $1")).
		WithArgs("req-1", "wrk-1", nil, "st-rejected", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Decide(context.Background(), DecideParams{
		RequestID:      "req-1",
		WorkerID:       "wrk-1",
		StatusID:       "st-rejected",
		ProcessingTime: now,
	}, false, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDecideMissingRequestRollsBack(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET worker_id = $2")).
		WithArgs("missing", "wrk-1", nil, "st-approved", now).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Decide(context.Background(), DecideParams{
		RequestID:      "missing",
		WorkerID:       "wrk-1",
		StatusID:       "st-approved",
		ProcessingTime: now,
	}, true, &models.StudyingProgress{RequestID: "missing"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryClearGroup(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET group_id = NULL WHERE id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ClearGroup(context.Background(), "req-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryDeleteRemovesProgressFirst(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM studying_progress WHERE request_id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM requests WHERE id = $1")).
		WithArgs("req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "req-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryApprovedCoursesByStudent(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "study_direction", "start_date", "hours_count"}).
		AddRow("crs-1", "Go Backend", "Software Engineering", time.Now(), 120)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT c.id, c.name, c.study_direction, c.start_date, c.hours_count")).
		WithArgs("stu-1", models.RequestStatusApproved).
		WillReturnRows(rows)

	courses, err := repo.ApprovedCoursesByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, "Go Backend", courses[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
