package evaluator

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitalguard/internal/models"
	"vitalguard/internal/repository"
)

func setupThresholdStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *ThresholdStore) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := repository.NewThresholdRepository(db, logger)
	store := NewThresholdStore(repo, logger)

	return db, mock, store
}

func TestBoundsFor_ExplicitRecordWins(t *testing.T) {
	db, mock, store := setupThresholdStore(t)
	defer db.Close()

	ctx := context.Background()
	patientID := uuid.New().String()

	rows := sqlmock.NewRows([]string{
		"threshold_id", "patient_id", "vital_type",
		"min_warning", "max_warning", "min_critical", "max_critical", "created_at",
	}).AddRow(
		uuid.New().String(), patientID, "heart_rate",
		55.0, 95.0, 45.0, 115.0, time.Now(),
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(patientID, models.VitalHeartRate).
		WillReturnRows(rows)

	bounds, err := store.BoundsFor(ctx, patientID, models.VitalHeartRate)

	require.NoError(t, err)
	assert.Equal(t, 55.0, *bounds.MinWarning)
	assert.Equal(t, 95.0, *bounds.MaxWarning)
	assert.Equal(t, 45.0, *bounds.MinCritical)
	assert.Equal(t, 115.0, *bounds.MaxCritical)
}

func TestBoundsFor_FallsBackToDefaults(t *testing.T) {
	db, mock, store := setupThresholdStore(t)
	defer db.Close()

	ctx := context.Background()
	patientID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(patientID, models.VitalSpO2).
		WillReturnError(sql.ErrNoRows)

	bounds, err := store.BoundsFor(ctx, patientID, models.VitalSpO2)

	require.NoError(t, err)
	// 无显式记录时返回系统默认值
	assert.Equal(t, 92.0, *bounds.MinWarning)
	assert.Equal(t, 88.0, *bounds.MinCritical)
	assert.Nil(t, bounds.MaxWarning)
	assert.Nil(t, bounds.MaxCritical)
}

func TestBoundsFor_UnknownVitalTypeHasNoBounds(t *testing.T) {
	db, mock, store := setupThresholdStore(t)
	defer db.Close()

	ctx := context.Background()
	patientID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(patientID, models.VitalRespiratoryRate).
		WillReturnError(sql.ErrNoRows)

	bounds, err := store.BoundsFor(ctx, patientID, models.VitalRespiratoryRate)

	require.NoError(t, err)
	assert.Nil(t, bounds.MinWarning)
	assert.Nil(t, bounds.MaxWarning)
	assert.Nil(t, bounds.MinCritical)
	assert.Nil(t, bounds.MaxCritical)

	// 全缺省边界永不触发
	assert.Nil(t, Evaluate(f(999), bounds))
}

func TestDefaultThresholds_Bootstrap(t *testing.T) {
	patientID := uuid.New().String()

	thresholds := DefaultThresholds(patientID)

	require.Len(t, thresholds, 3)
	assert.Equal(t, models.VitalHeartRate, thresholds[0].VitalType)
	assert.Equal(t, models.VitalSpO2, thresholds[1].VitalType)
	assert.Equal(t, models.VitalTemperature, thresholds[2].VitalType)

	for _, th := range thresholds {
		assert.Equal(t, patientID, th.PatientID)
		assert.NotEmpty(t, th.ThresholdID)
		// 快照与默认表一致
		want, ok := DefaultBounds(th.VitalType)
		require.True(t, ok)
		assert.Equal(t, want, th.ThresholdBounds)
		// 默认表自身满足顺序不变式
		assert.NoError(t, th.Validate())
	}
}
