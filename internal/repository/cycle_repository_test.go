package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

var cycleColumns = []string{
	"id", "obligation_id", "start_date", "end_date",
	"planned_amount", "total_applied", "carryover_amount",
	"is_paid", "is_closed", "created_at", "updated_at",
}

func cycleRow(id, obligationID uuid.UUID, start, end datetime.Date) *sqlmock.Rows {
	return sqlmock.NewRows(cycleColumns).
		AddRow(id, obligationID, start.Time, end.Time,
			decimal.NewFromInt(100), decimal.Zero, decimal.Zero,
			false, false, time.Now(), time.Now())
}

func TestNewCycleRepository(t *testing.T) {
	t.Parallel()

	mockDB, _, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")

	repo := NewCycleRepository(db)
	assert.NotNil(t, repo)
}

func TestCycleRepository_Create(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewCycleRepository(db)

	ctx := context.Background()
	cycle := &model.Cycle{
		ObligationID:    uuid.New(),
		StartDate:       datetime.NewDate(2024, time.January, 16),
		EndDate:         datetime.NewDate(2024, time.February, 15),
		PlannedAmount:   decimal.NewFromInt(100),
		TotalApplied:    decimal.Zero,
		CarryoverAmount: decimal.Zero,
	}

	now := time.Now()
	rows := sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now)

	mock.ExpectQuery(`INSERT INTO cycles`).
		WithArgs(sqlmock.AnyArg(), cycle.ObligationID, cycle.StartDate.Time, cycle.EndDate.Time,
			cycle.PlannedAmount, cycle.TotalApplied, cycle.CarryoverAmount, false, false).
		WillReturnRows(rows)

	err := repo.Create(ctx, cycle)

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, cycle.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepository_Create_DuplicatePeriod(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewCycleRepository(db)

	ctx := context.Background()
	cycle := &model.Cycle{
		ObligationID:    uuid.New(),
		StartDate:       datetime.NewDate(2024, time.January, 16),
		EndDate:         datetime.NewDate(2024, time.February, 15),
		PlannedAmount:   decimal.NewFromInt(100),
		TotalApplied:    decimal.Zero,
		CarryoverAmount: decimal.Zero,
	}

	mock.ExpectQuery(`INSERT INTO cycles`).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repo.Create(ctx, cycle)

	assert.ErrorIs(t, err, ErrDuplicateCycle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepository_GetByID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock, uuid.UUID)
		wantErr   bool
		errType   error
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				rows := cycleRow(id, uuid.New(),
					datetime.NewDate(2024, time.January, 16),
					datetime.NewDate(2024, time.February, 15))
				mock.ExpectQuery(`SELECT \* FROM cycles WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(rows)
			},
			wantErr: false,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				mock.ExpectQuery(`SELECT \* FROM cycles WHERE id = \$1`).
					WithArgs(id).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: true,
			errType: ErrCycleNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockDB, mock, _ := sqlmock.New()
			defer func() { _ = mockDB.Close() }()
			db := sqlx.NewDb(mockDB, "sqlmock")
			repo := NewCycleRepository(db)

			ctx := context.Background()
			cycleID := uuid.New()
			tt.setupMock(mock, cycleID)

			cycle, err := repo.GetByID(ctx, cycleID)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errType != nil {
					assert.ErrorIs(t, err, tt.errType)
				}
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, cycle)
				assert.Equal(t, cycleID, cycle.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCycleRepository_GetByStart_NoRowIsNil(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewCycleRepository(db)

	ctx := context.Background()
	obligationID := uuid.New()
	start := datetime.NewDate(2024, time.March, 16)

	mock.ExpectQuery(`SELECT \* FROM cycles WHERE obligation_id = \$1 AND start_date = \$2`).
		WithArgs(obligationID, start.Time).
		WillReturnError(sql.ErrNoRows)

	cycle, err := repo.GetByStart(ctx, obligationID, start)

	assert.NoError(t, err)
	assert.Nil(t, cycle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepository_FindContaining(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewCycleRepository(db)

	ctx := context.Background()
	obligationID := uuid.New()
	day := datetime.NewDate(2024, time.February, 10)

	rows := cycleRow(uuid.New(), obligationID,
		datetime.NewDate(2024, time.January, 16),
		datetime.NewDate(2024, time.February, 15))

	mock.ExpectQuery(`SELECT \* FROM cycles WHERE obligation_id = \$1 AND start_date <= \$2 AND end_date >= \$2`).
		WithArgs(obligationID, day.Time).
		WillReturnRows(rows)

	cycle, err := repo.FindContaining(ctx, obligationID, day)

	assert.NoError(t, err)
	assert.NotNil(t, cycle)
	assert.True(t, cycle.StartDate.Equal(datetime.NewDate(2024, time.January, 16)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepository_ListFrom_AscendingStart(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewCycleRepository(db)

	ctx := context.Background()
	obligationID := uuid.New()
	from := datetime.NewDate(2024, time.January, 16)

	rows := sqlmock.NewRows(cycleColumns).
		AddRow(uuid.New(), obligationID,
			datetime.NewDate(2024, time.January, 16).Time, datetime.NewDate(2024, time.February, 15).Time,
			decimal.NewFromInt(100), decimal.Zero, decimal.Zero, false, false, time.Now(), time.Now()).
		AddRow(uuid.New(), obligationID,
			datetime.NewDate(2024, time.February, 16).Time, datetime.NewDate(2024, time.March, 15).Time,
			decimal.NewFromInt(100), decimal.Zero, decimal.Zero, false, false, time.Now(), time.Now())

	mock.ExpectQuery(`SELECT \* FROM cycles WHERE obligation_id = \$1 AND start_date >= \$2 ORDER BY start_date ASC`).
		WithArgs(obligationID, from.Time).
		WillReturnRows(rows)

	cycles, err := repo.ListFrom(ctx, obligationID, from)

	assert.NoError(t, err)
	assert.Len(t, cycles, 2)
	assert.True(t, cycles[0].StartDate.Before(cycles[1].StartDate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCycleRepository_UpdateTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock, uuid.UUID)
		wantErr   bool
		errType   error
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				mock.ExpectExec(`UPDATE cycles`).
					WithArgs(id, decimal.NewFromInt(60), decimal.NewFromInt(40), true).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantErr: false,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				mock.ExpectExec(`UPDATE cycles`).
					WithArgs(id, decimal.NewFromInt(60), decimal.NewFromInt(40), true).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: true,
			errType: ErrCycleNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockDB, mock, _ := sqlmock.New()
			defer func() { _ = mockDB.Close() }()
			db := sqlx.NewDb(mockDB, "sqlmock")
			repo := NewCycleRepository(db)

			ctx := context.Background()
			cycleID := uuid.New()
			tt.setupMock(mock, cycleID)

			err := repo.UpdateTotals(ctx, cycleID, decimal.NewFromInt(60), decimal.NewFromInt(40), true)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errType != nil {
					assert.ErrorIs(t, err, tt.errType)
				}
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCycleRepository_UpdatePlannedFrom(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewCycleRepository(db)

	ctx := context.Background()
	obligationID := uuid.New()
	from := datetime.NewDate(2024, time.April, 16)

	mock.ExpectExec(`UPDATE cycles`).
		WithArgs(obligationID, decimal.NewFromInt(150), from.Time).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.UpdatePlannedFrom(ctx, obligationID, decimal.NewFromInt(150), from)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestErrCycleNotFound(t *testing.T) {
	t.Parallel()

	assert.Error(t, ErrCycleNotFound)
	assert.Equal(t, "cycle not found", ErrCycleNotFound.Error())
}
