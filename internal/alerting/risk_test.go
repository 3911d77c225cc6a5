package alerting

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

func setupRiskScorer(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *RiskScorer, *repository.AlertRepository, *repository.PatientRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	alertRepo := repository.NewAlertRepository(db, logger)
	patientRepo := repository.NewPatientRepository(db, logger)
	scorer := NewRiskScorer(time.Hour, logger)

	return db, mock, scorer, alertRepo, patientRepo
}

func expectSeverityCounts(mock sqlmock.Sqlmock, criticalCount, warningCount int) {
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(criticalCount))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(warningCount))
}

func TestUpdateRisk_TwoCriticalEscalatesToCritical(t *testing.T) {
	db, mock, scorer, alertRepo, patientRepo := setupRiskScorer(t)
	defer db.Close()

	patient := &models.Patient{
		PatientID: uuid.New().String(),
		RiskLevel: models.RiskLow,
	}

	expectSeverityCounts(mock, 2, 0)
	mock.ExpectExec(`UPDATE patients`).
		WithArgs(models.RiskCritical, patient.PatientID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	level, err := scorer.UpdateRisk(context.Background(), alertRepo, patientRepo, patient)

	require.NoError(t, err)
	assert.Equal(t, models.RiskCritical, level)
	assert.Equal(t, models.RiskCritical, patient.RiskLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRisk_UnchangedLevelSkipsWrite(t *testing.T) {
	db, mock, scorer, alertRepo, patientRepo := setupRiskScorer(t)
	defer db.Close()

	patient := &models.Patient{
		PatientID: uuid.New().String(),
		RiskLevel: models.RiskLow,
	}

	// 无报警 → low，与当前等级一致，不应有 UPDATE
	expectSeverityCounts(mock, 0, 0)

	level, err := scorer.UpdateRisk(context.Background(), alertRepo, patientRepo, patient)

	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRisk_SingleWarningIsMedium(t *testing.T) {
	db, mock, scorer, alertRepo, patientRepo := setupRiskScorer(t)
	defer db.Close()

	patient := &models.Patient{
		PatientID: uuid.New().String(),
		RiskLevel: models.RiskLow,
	}

	expectSeverityCounts(mock, 0, 1)
	mock.ExpectExec(`UPDATE patients`).
		WithArgs(models.RiskMedium, patient.PatientID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	level, err := scorer.UpdateRisk(context.Background(), alertRepo, patientRepo, patient)

	require.NoError(t, err)
	assert.Equal(t, models.RiskMedium, level)
}

func TestUpdateRisk_DeescalatesWhenWindowClears(t *testing.T) {
	db, mock, scorer, alertRepo, patientRepo := setupRiskScorer(t)
	defer db.Close()

	// 窗口内报警清零后，高风险患者回落到 low
	patient := &models.Patient{
		PatientID: uuid.New().String(),
		RiskLevel: models.RiskCritical,
	}

	expectSeverityCounts(mock, 0, 0)
	mock.ExpectExec(`UPDATE patients`).
		WithArgs(models.RiskLow, patient.PatientID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	level, err := scorer.UpdateRisk(context.Background(), alertRepo, patientRepo, patient)

	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, level)
}

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		name     string
		critical int
		warning  int
		expected models.RiskLevel
	}{
		{"no alerts", 0, 0, models.RiskLow},
		{"one warning", 0, 1, models.RiskMedium},
		{"two warnings", 0, 2, models.RiskMedium},
		{"three warnings", 0, 3, models.RiskHigh},
		{"one critical", 1, 0, models.RiskHigh},
		{"one critical many warnings", 1, 5, models.RiskHigh},
		{"two critical", 2, 0, models.RiskCritical},
		{"many of both", 3, 4, models.RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, riskLevelFor(tt.critical, tt.warning))
		})
	}
}
