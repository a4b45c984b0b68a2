package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/dev-lms/lms-api/internal/models"
)

func newProgressRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProgressRepositoryGetOrCreateReturnsWinningRow(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	start := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO studying_progress")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"id", "request_id", "education_start_date", "graduation_date", "final_grade", "final_exam_result", "percent", "status_id"}).
		AddRow("prg-existing", "req-1", start, nil, nil, nil, 40, "ss-in-progress")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_id, education_start_date, graduation_date, final_grade, final_exam_result, percent, status_id")).
		WithArgs("req-1").
		WillReturnRows(rows)

	progress, err := repo.GetOrCreate(context.Background(), &models.StudyingProgress{
		RequestID: "req-1",
		StatusID:  "ss-in-progress",
	})
	require.NoError(t, err)
	require.Equal(t, "prg-existing", progress.ID)
	require.Equal(t, 40, progress.Percent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryUpdatePercentKeepsExistingGraduation(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	graduation := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE studying_progress SET percent = $2, graduation_date = COALESCE(graduation_date, $3) WHERE id = $1")).
		WithArgs("prg-1", 100, &graduation).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePercent(context.Background(), "prg-1", 100, &graduation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProgressRepositoryListByGroup(t *testing.T) {
	db, mock, cleanup := newProgressRepoMock(t)
	defer cleanup()
	repo := NewProgressRepository(db)

	start := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"student_id", "student_last_name", "student_first_name", "student_middle_name", "email", "percent", "status_name", "education_start_date", "graduation_date"}).
		AddRow("stu-1", "Ivanov", "Ivan", "", "ivan@example.com", 55, "In progress", start, nil).
		AddRow("stu-2", "Petrov", "Petr", "", "petr@example.com", 100, "Completed", start, start)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.id AS student_id")).
		WithArgs("grp-1").
		WillReturnRows(rows)

	views, err := repo.ListByGroup(context.Background(), "grp-1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, 100, views[1].Percent)
	require.NoError(t, mock.ExpectationsWereMet())
}
