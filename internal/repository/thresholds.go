package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vitalguard/internal/models"

	"go.uber.org/zap"
)

// ThresholdRepository 报警阈值仓库
type ThresholdRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewThresholdRepository 创建阈值仓库
func NewThresholdRepository(db DBTX, logger *zap.Logger) *ThresholdRepository {
	return &ThresholdRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx 返回绑定到事务的仓库副本
func (r *ThresholdRepository) WithTx(tx *sql.Tx) *ThresholdRepository {
	return &ThresholdRepository{db: tx, logger: r.logger}
}

// GetThreshold 获取某患者某体征类型的显式阈值记录
// 不存在时返回 (nil, nil)，由调用方回退系统默认值
func (r *ThresholdRepository) GetThreshold(ctx context.Context, patientID string, vitalType models.VitalType) (*models.AlertThreshold, error) {
	query := `
		SELECT threshold_id, patient_id, vital_type,
			min_warning, max_warning, min_critical, max_critical, created_at
		FROM alert_thresholds
		WHERE patient_id = $1 AND vital_type = $2
	`

	var t models.AlertThreshold
	err := r.db.QueryRowContext(ctx, query, patientID, vitalType).Scan(
		&t.ThresholdID,
		&t.PatientID,
		&t.VitalType,
		&t.MinWarning,
		&t.MaxWarning,
		&t.MinCritical,
		&t.MaxCritical,
		&t.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query threshold: %w", err)
	}

	return &t, nil
}

// UpsertThreshold 写入或更新阈值记录
func (r *ThresholdRepository) UpsertThreshold(ctx context.Context, t *models.AlertThreshold) error {
	query := `
		INSERT INTO alert_thresholds (
			threshold_id, patient_id, vital_type,
			min_warning, max_warning, min_critical, max_critical, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (patient_id, vital_type) DO UPDATE SET
			min_warning = EXCLUDED.min_warning,
			max_warning = EXCLUDED.max_warning,
			min_critical = EXCLUDED.min_critical,
			max_critical = EXCLUDED.max_critical
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ThresholdID,
		t.PatientID,
		t.VitalType,
		t.MinWarning,
		t.MaxWarning,
		t.MinCritical,
		t.MaxCritical,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert threshold: %w", err)
	}

	return nil
}

// InsertThresholds 批量插入阈值记录（患者建档时写入默认表快照）
func (r *ThresholdRepository) InsertThresholds(ctx context.Context, thresholds []models.AlertThreshold) error {
	for i := range thresholds {
		if err := r.UpsertThreshold(ctx, &thresholds[i]); err != nil {
			return err
		}
	}
	return nil
}
