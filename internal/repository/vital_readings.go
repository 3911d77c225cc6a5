package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vitalguard/internal/models"

	"go.uber.org/zap"
)

// VitalReadingRepository 生命体征读数仓库
type VitalReadingRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewVitalReadingRepository 创建读数仓库
func NewVitalReadingRepository(db DBTX, logger *zap.Logger) *VitalReadingRepository {
	return &VitalReadingRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx 返回绑定到事务的仓库副本
func (r *VitalReadingRepository) WithTx(tx *sql.Tx) *VitalReadingRepository {
	return &VitalReadingRepository{db: tx, logger: r.logger}
}

// InsertReading 插入一条读数（读数创建后不可变）
func (r *VitalReadingRepository) InsertReading(ctx context.Context, reading *models.VitalReading) error {
	query := `
		INSERT INTO vital_readings (
			reading_id, patient_id, timestamp,
			heart_rate, spo2, temperature,
			blood_pressure_systolic, blood_pressure_diastolic, respiratory_rate,
			source, device_id, is_anomaly, anomaly_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		reading.ReadingID,
		reading.PatientID,
		reading.Timestamp,
		reading.HeartRate,
		reading.SpO2,
		reading.Temperature,
		reading.BPSystolic,
		reading.BPDiastolic,
		reading.RespiratoryRate,
		reading.Source,
		reading.DeviceID,
		reading.IsAnomaly,
		reading.AnomalyScore,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vital reading: %w", err)
	}

	return nil
}

// MarkAnomaly 将读数标记为异常（评估产生报警后由调用方触发）
func (r *VitalReadingRepository) MarkAnomaly(ctx context.Context, readingID string) error {
	query := `
		UPDATE vital_readings
		SET is_anomaly = TRUE
		WHERE reading_id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, readingID); err != nil {
		return fmt.Errorf("failed to mark reading as anomaly: %w", err)
	}

	return nil
}

// ListReadingsSince 查询某患者指定时间之后的读数（按时间升序）
func (r *VitalReadingRepository) ListReadingsSince(ctx context.Context, patientID string, since time.Time) ([]models.VitalReading, error) {
	query := `
		SELECT reading_id, patient_id, timestamp,
			heart_rate, spo2, temperature,
			blood_pressure_systolic, blood_pressure_diastolic, respiratory_rate,
			source, device_id, is_anomaly, anomaly_score
		FROM vital_readings
		WHERE patient_id = $1 AND timestamp >= $2
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, query, patientID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query vital readings: %w", err)
	}
	defer rows.Close()

	var readings []models.VitalReading
	for rows.Next() {
		var v models.VitalReading
		if err := rows.Scan(
			&v.ReadingID,
			&v.PatientID,
			&v.Timestamp,
			&v.HeartRate,
			&v.SpO2,
			&v.Temperature,
			&v.BPSystolic,
			&v.BPDiastolic,
			&v.RespiratoryRate,
			&v.Source,
			&v.DeviceID,
			&v.IsAnomaly,
			&v.AnomalyScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vital reading: %w", err)
		}
		readings = append(readings, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vital readings: %w", err)
	}

	return readings, nil
}

// GetLatestReading 获取某患者最近一条读数
func (r *VitalReadingRepository) GetLatestReading(ctx context.Context, patientID string) (*models.VitalReading, error) {
	query := `
		SELECT reading_id, patient_id, timestamp,
			heart_rate, spo2, temperature,
			blood_pressure_systolic, blood_pressure_diastolic, respiratory_rate,
			source, device_id, is_anomaly, anomaly_score
		FROM vital_readings
		WHERE patient_id = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`

	var v models.VitalReading
	err := r.db.QueryRowContext(ctx, query, patientID).Scan(
		&v.ReadingID,
		&v.PatientID,
		&v.Timestamp,
		&v.HeartRate,
		&v.SpO2,
		&v.Temperature,
		&v.BPSystolic,
		&v.BPDiastolic,
		&v.RespiratoryRate,
		&v.Source,
		&v.DeviceID,
		&v.IsAnomaly,
		&v.AnomalyScore,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}

	return &v, nil
}
