package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cashflow/ledgerd/internal/model"
	"github.com/cashflow/ledgerd/pkg/datetime"
)

var obligationColumns = []string{
	"id", "kind", "name", "category", "amount", "notes",
	"due_date", "is_recurring", "recurrence_interval", "recurrence_unit",
	"is_paid", "is_autopay", "is_variable_amount", "payment_link",
	"frequency", "anchor_date", "enable_carryover", "is_deleted",
	"created_at", "updated_at",
}

func fixedObligationRow(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows(obligationColumns).
		AddRow(id, "fixed", "Rent", "Housing", decimal.NewFromInt(1200), nil,
			datetime.NewDate(2024, time.January, 15).Time, true, 1, "month",
			false, false, false, nil,
			nil, nil, false, false,
			time.Now(), time.Now())
}

func TestNewObligationRepository(t *testing.T) {
	t.Parallel()

	mockDB, _, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")

	repo := NewObligationRepository(db)
	assert.NotNil(t, repo)
}

func TestObligationRepository_Create(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewObligationRepository(db)

	ctx := context.Background()
	interval := 1
	unit := model.UnitMonth
	obligation := &model.Obligation{
		Kind:               model.KindFixed,
		Name:               "Rent",
		Category:           "Housing",
		Amount:             decimal.NewFromInt(1200),
		DueDate:            datetime.NewDate(2024, time.January, 15),
		IsRecurring:        true,
		RecurrenceInterval: &interval,
		RecurrenceUnit:     &unit,
	}

	now := time.Now()
	rows := sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now)

	mock.ExpectQuery(`INSERT INTO obligations`).
		WithArgs(sqlmock.AnyArg(), obligation.Kind, obligation.Name, obligation.Category,
			obligation.Amount, nil,
			obligation.DueDate.Time, true, &interval, &unit,
			false, false, false, nil,
			nil, nil, false).
		WillReturnRows(rows)

	err := repo.Create(ctx, obligation)

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, obligation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObligationRepository_GetByID(t *testing.T) {
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
				mock.ExpectQuery(`SELECT \* FROM obligations WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(fixedObligationRow(id))
			},
			wantErr: false,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				mock.ExpectQuery(`SELECT \* FROM obligations WHERE id = \$1`).
					WithArgs(id).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: true,
			errType: ErrObligationNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockDB, mock, _ := sqlmock.New()
			defer func() { _ = mockDB.Close() }()
			db := sqlx.NewDb(mockDB, "sqlmock")
			repo := NewObligationRepository(db)

			ctx := context.Background()
			obligationID := uuid.New()
			tt.setupMock(mock, obligationID)

			obligation, err := repo.GetByID(ctx, obligationID)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errType != nil {
					assert.ErrorIs(t, err, tt.errType)
				}
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, obligation)
				assert.Equal(t, obligationID, obligation.ID)
				assert.Equal(t, model.KindFixed, obligation.Kind)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestObligationRepository_ListByKind(t *testing.T) {
	t.Parallel()

	mockDB, mock, _ := sqlmock.New()
	defer func() { _ = mockDB.Close() }()
	db := sqlx.NewDb(mockDB, "sqlmock")
	repo := NewObligationRepository(db)

	ctx := context.Background()

	mock.ExpectQuery(`SELECT \* FROM obligations WHERE kind = \$1 AND is_deleted = false ORDER BY name ASC`).
		WithArgs(model.KindFixed).
		WillReturnRows(fixedObligationRow(uuid.New()))

	obligations, err := repo.ListByKind(ctx, model.KindFixed)

	assert.NoError(t, err)
	assert.Len(t, obligations, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObligationRepository_SoftDelete(t *testing.T) {
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
				mock.ExpectExec(`UPDATE obligations SET is_deleted = true`).
					WithArgs(id).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			wantErr: false,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock, id uuid.UUID) {
				mock.ExpectExec(`UPDATE obligations SET is_deleted = true`).
					WithArgs(id).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: true,
			errType: ErrObligationNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockDB, mock, _ := sqlmock.New()
			defer func() { _ = mockDB.Close() }()
			db := sqlx.NewDb(mockDB, "sqlmock")
			repo := NewObligationRepository(db)

			ctx := context.Background()
			obligationID := uuid.New()
			tt.setupMock(mock, obligationID)

			err := repo.SoftDelete(ctx, obligationID)

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

func TestErrObligationNotFound(t *testing.T) {
	t.Parallel()

	assert.Error(t, ErrObligationNotFound)
	assert.Equal(t, "obligation not found", ErrObligationNotFound.Error())
}
