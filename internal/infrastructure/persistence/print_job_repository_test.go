package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/warecore/printd/internal/domain/printing"
	"github.com/warecore/printd/internal/domain/shared"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func jobColumns() []string {
	return []string{
		"id", "org_id", "entity_type", "entity_ids", "options",
		"printer_id", "requested_by", "requester_name", "status",
		"started_at", "finished_at", "artifact_path", "error_code",
		"error_message", "created_at", "updated_at",
	}
}

func TestGormPrintJobRepository_FindByID(t *testing.T) {
	t.Run("finds existing job", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPrintJobRepository(gormDB)

		jobID := uuid.New()
		orgID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(jobColumns()).
			AddRow(jobID, orgID, "item", `["1","2"]`, `{"copies":2}`,
				nil, nil, "", "QUEUED", nil, nil, "", "", "", now, now)

		mock.ExpectQuery(`SELECT \* FROM "print_jobs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(jobID, 1).
			WillReturnRows(rows)

		job, err := repo.FindByID(context.Background(), jobID)

		require.NoError(t, err)
		assert.Equal(t, jobID, job.ID)
		assert.Equal(t, orgID, job.OrgID)
		assert.Equal(t, []string{"1", "2"}, job.EntityIDs)
		assert.Equal(t, map[string]any{"copies": float64(2)}, job.Options)
		assert.Equal(t, printing.JobStatusQueued, job.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing job", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPrintJobRepository(gormDB)

		jobID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "print_jobs" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(jobID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), jobID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects malformed entity_ids", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPrintJobRepository(gormDB)

		jobID := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows(jobColumns()).
			AddRow(jobID, uuid.New(), "item", `not-json`, "",
				nil, nil, "", "QUEUED", nil, nil, "", "", "", now, now)

		mock.ExpectQuery(`SELECT \* FROM "print_jobs"`).
			WithArgs(jobID, 1).
			WillReturnRows(rows)

		_, err := repo.FindByID(context.Background(), jobID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed entity_ids")
	})
}

func TestGormPrintJobRepository_Save(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormPrintJobRepository(gormDB)

	job, err := printing.NewPrintJob(uuid.New(), "item", []string{"1"})
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO "print_jobs"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), job)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPrintJobRepository_CountByStatus(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormPrintJobRepository(gormDB)

	orgID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "print_jobs" WHERE org_id = \$1 AND status = \$2`).
		WithArgs(orgID, "FAILED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByStatus(context.Background(), orgID, printing.JobStatusFailed)

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPrintJobRepository_FindAllForOrg(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormPrintJobRepository(gormDB)

	orgID := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(jobColumns()).
		AddRow(uuid.New(), orgID, "item", `["1"]`, "",
			nil, nil, "", "DONE", nil, nil, "printjobs/x.zpl", "", "", now, now).
		AddRow(uuid.New(), orgID, "item", `["2"]`, "",
			nil, nil, "", "FAILED", nil, nil, "", "CONNECT_FAILED", "refused", now, now)

	mock.ExpectQuery(`SELECT \* FROM "print_jobs" WHERE org_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT .*`).
		WillReturnRows(rows)

	jobs, err := repo.FindAllForOrg(context.Background(), orgID, shared.Filter{
		Page:     1,
		PageSize: 20,
		Filters:  map[string]any{"status": "DONE"},
	})

	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormPrinterRepository_FindByID(t *testing.T) {
	t.Run("finds existing printer", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPrinterRepository(gormDB)

		printerID := uuid.New()
		now := time.Now()
		rows := sqlmock.NewRows([]string{"id", "name", "driver", "host", "port", "config", "created_at", "updated_at"}).
			AddRow(printerID, "warehouse-zebra", "zpl", "10.0.0.5", 9100, `{"uri":""}`, now, now)

		mock.ExpectQuery(`SELECT \* FROM "printers" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(printerID, 1).
			WillReturnRows(rows)

		printer, err := repo.FindByID(context.Background(), printerID)

		require.NoError(t, err)
		assert.Equal(t, "warehouse-zebra", printer.Name)
		assert.Equal(t, printing.DriverZPL, printer.Driver)
		assert.Equal(t, 9100, printer.EndpointPort())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing printer", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormPrinterRepository(gormDB)

		printerID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "printers"`).
			WithArgs(printerID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByID(context.Background(), printerID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
