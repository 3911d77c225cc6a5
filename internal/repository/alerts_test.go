package repository

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
)

func setupMockAlertDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *AlertRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewAlertRepository(db, logger)

	return db, mock, repo
}

func TestInsertAlert_Success(t *testing.T) {
	db, mock, repo := setupMockAlertDB(t)
	defer db.Close()

	ctx := context.Background()
	readingID := uuid.New().String()
	vitalType := "spo2"
	value := 85.0
	threshold := 88.0

	alert := &models.Alert{
		AlertID:           uuid.New().String(),
		PatientID:         uuid.New().String(),
		VitalReadingID:    &readingID,
		AlertType:         models.AlertVitalCritical,
		Severity:          models.SeverityCritical,
		Message:           "SpO2 is too low: 85% (threshold: 88%)",
		VitalType:         &vitalType,
		VitalValue:        &value,
		ThresholdBreached: &threshold,
		CreatedAt:         time.Now(),
	}

	mock.ExpectExec(`INSERT INTO alerts`).
		WithArgs(
			alert.AlertID, alert.PatientID, alert.VitalReadingID,
			alert.AlertType, alert.Severity, alert.Message,
			alert.VitalType, alert.VitalValue, alert.ThresholdBreached,
			alert.IsAcknowledged, alert.AcknowledgedBy, alert.AcknowledgedAt,
			alert.NotificationSent, alert.NotificationChannel, alert.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertAlert(ctx, alert)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountBySeverity(t *testing.T) {
	db, mock, repo := setupMockAlertDB(t)
	defer db.Close()

	ctx := context.Background()
	patientID := uuid.New().String()
	since := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs(patientID, models.SeverityCritical, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountBySeverity(ctx, patientID, models.SeverityCritical, since)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAlerts_WithFilters(t *testing.T) {
	db, mock, repo := setupMockAlertDB(t)
	defer db.Close()

	ctx := context.Background()
	patientID := uuid.New().String()
	severity := models.SeverityWarning
	ack := false

	rows := sqlmock.NewRows([]string{
		"alert_id", "patient_id", "vital_reading_id",
		"alert_type", "severity", "message",
		"vital_type", "vital_value", "threshold_breached",
		"is_acknowledged", "acknowledged_by", "acknowledged_at",
		"notification_sent", "notification_channel", "created_at",
	}).AddRow(
		uuid.New().String(), patientID, nil,
		"vital_warning", "warning", "Heart Rate is too high: 105bpm (threshold: 100bpm)",
		"heart_rate", 105.0, 100.0,
		false, nil, nil,
		false, nil, time.Now(),
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(patientID, severity, ack).
		WillReturnRows(rows)

	alerts, err := repo.ListAlerts(ctx, patientID, AlertFilters{
		Severity:     &severity,
		Acknowledged: &ack,
	})

	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertVitalWarning, alerts[0].AlertType)
	assert.Equal(t, models.SeverityWarning, alerts[0].Severity)
	assert.False(t, alerts[0].IsAcknowledged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeAlert_Success(t *testing.T) {
	db, mock, repo := setupMockAlertDB(t)
	defer db.Close()

	ctx := context.Background()
	alertID := uuid.New().String()
	ackAt := time.Now()

	mock.ExpectExec(`UPDATE alerts`).
		WithArgs("dr.smith", ackAt, alertID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AcknowledgeAlert(ctx, alertID, "dr.smith", ackAt)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeAlert_NotFound(t *testing.T) {
	db, mock, repo := setupMockAlertDB(t)
	defer db.Close()

	ctx := context.Background()
	alertID := uuid.New().String()
	ackAt := time.Now()

	mock.ExpectExec(`UPDATE alerts`).
		WithArgs("dr.smith", ackAt, alertID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AcknowledgeAlert(ctx, alertID, "dr.smith", ackAt)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "alert not found")
}
