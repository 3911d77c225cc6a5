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

func setupMockReadingDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *VitalReadingRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := zap.NewNop()
	repo := NewVitalReadingRepository(db, logger)

	return db, mock, repo
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func TestInsertReading_Success(t *testing.T) {
	db, mock, repo := setupMockReadingDB(t)
	defer db.Close()

	ctx := context.Background()
	reading := &models.VitalReading{
		ReadingID:       uuid.New().String(),
		PatientID:       uuid.New().String(),
		Timestamp:       time.Now().UTC(),
		HeartRate:       floatPtr(72),
		SpO2:            floatPtr(97),
		Temperature:     floatPtr(36.6),
		BPSystolic:      intPtr(120),
		BPDiastolic:     intPtr(80),
		RespiratoryRate: floatPtr(16),
		Source:          models.SourceSimulated,
		DeviceID:        strPtr("SIM-DEVICE-1A2B3C4D"),
	}

	mock.ExpectExec(`INSERT INTO vital_readings`).
		WithArgs(
			reading.ReadingID, reading.PatientID, reading.Timestamp,
			reading.HeartRate, reading.SpO2, reading.Temperature,
			reading.BPSystolic, reading.BPDiastolic, reading.RespiratoryRate,
			reading.Source, reading.DeviceID, reading.IsAnomaly, reading.AnomalyScore,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertReading(ctx, reading)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAnomaly(t *testing.T) {
	db, mock, repo := setupMockReadingDB(t)
	defer db.Close()

	ctx := context.Background()
	readingID := uuid.New().String()

	mock.ExpectExec(`UPDATE vital_readings`).
		WithArgs(readingID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.MarkAnomaly(ctx, readingID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestReading_NoRows(t *testing.T) {
	db, mock, repo := setupMockReadingDB(t)
	defer db.Close()

	ctx := context.Background()
	patientID := uuid.New().String()

	mock.ExpectQuery(`SELECT`).
		WithArgs(patientID).
		WillReturnError(sql.ErrNoRows)

	reading, err := repo.GetLatestReading(ctx, patientID)

	require.NoError(t, err)
	assert.Nil(t, reading)
}

func TestListReadingsSince(t *testing.T) {
	db, mock, repo := setupMockReadingDB(t)
	defer db.Close()

	ctx := context.Background()
	patientID := uuid.New().String()
	since := time.Now().Add(-time.Hour)

	rows := sqlmock.NewRows([]string{
		"reading_id", "patient_id", "timestamp",
		"heart_rate", "spo2", "temperature",
		"blood_pressure_systolic", "blood_pressure_diastolic", "respiratory_rate",
		"source", "device_id", "is_anomaly", "anomaly_score",
	}).AddRow(
		uuid.New().String(), patientID, time.Now().Add(-30*time.Minute),
		70.0, 96.0, 36.8,
		118, 78, 15.0,
		"simulated", "SIM-DEVICE-1A2B3C4D", false, nil,
	).AddRow(
		uuid.New().String(), patientID, time.Now().Add(-10*time.Minute),
		74.0, 95.0, 36.9,
		121, 80, 16.0,
		"simulated", "SIM-DEVICE-1A2B3C4D", false, nil,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs(patientID, since).
		WillReturnRows(rows)

	readings, err := repo.ListReadingsSince(ctx, patientID, since)

	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 70.0, *readings[0].HeartRate)
	assert.Equal(t, 95.0, *readings[1].SpO2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
