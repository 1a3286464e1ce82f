package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/librarium/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupFineTestRepository creates a fine repository with a mock database
func setupFineTestRepository(t *testing.T) (*fineRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewFineRepository(db, zap.NewNop())

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestFineRepository_ListByUser(t *testing.T) {
	paid := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expectedError bool
		expectedCount int
	}{
		{
			name: "success",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "loan_id", "amount", "paid_date", "is_paid"}).
					AddRow(2, 5, 150, nil, false).
					AddRow(1, 4, 100, paid, true)
				mock.ExpectQuery(`SELECT f.id, f.loan_id, f.amount, f.paid_date, f.is_paid`).
					WithArgs(7).
					WillReturnRows(rows)
			},
			expectedCount: 2,
		},
		{
			name: "no fines",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT f.id, f.loan_id, f.amount, f.paid_date, f.is_paid`).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"id", "loan_id", "amount", "paid_date", "is_paid"}))
			},
			expectedCount: 0,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT f.id, f.loan_id, f.amount, f.paid_date, f.is_paid`).
					WithArgs(7).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupFineTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			fines, err := repo.ListByUser(context.Background(), 7)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Len(t, fines, tt.expectedCount)
				if tt.expectedCount > 0 {
					assert.False(t, fines[0].IsPaid)
					assert.Nil(t, fines[0].PaidDate)
					assert.True(t, fines[1].IsPaid)
					assert.NotNil(t, fines[1].PaidDate)
				}
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFineRepository_MarkPaid(t *testing.T) {
	paidAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		fineID        int
		setupMock     func(sqlmock.Sqlmock)
		expectedError error
	}{
		{
			name:   "success",
			fineID: 3,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE fines SET paid_date`).
					WithArgs(paidAt, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name:   "already paid",
			fineID: 3,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE fines SET paid_date`).
					WithArgs(paidAt, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: models.ErrNotFound,
		},
		{
			name:   "unknown fine",
			fineID: 99,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE fines SET paid_date`).
					WithArgs(paidAt, 99).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedError: models.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupFineTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.MarkPaid(context.Background(), tt.fineID, paidAt)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
