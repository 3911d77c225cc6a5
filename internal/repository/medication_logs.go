package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vitalguard/internal/models"

	"go.uber.org/zap"
)

// MedicationLogRepository 服药记录仓库
type MedicationLogRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewMedicationLogRepository 创建服药记录仓库
func NewMedicationLogRepository(db DBTX, logger *zap.Logger) *MedicationLogRepository {
	return &MedicationLogRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx 返回绑定到事务的仓库副本
func (r *MedicationLogRepository) WithTx(tx *sql.Tx) *MedicationLogRepository {
	return &MedicationLogRepository{db: tx, logger: r.logger}
}

// ListPendingBefore 查询某患者计划时间早于 before 且仍为 pending 的服药记录
// JOIN medications 取药品名，用于漏服报警消息
func (r *MedicationLogRepository) ListPendingBefore(ctx context.Context, patientID string, before time.Time) ([]models.MedicationLog, error) {
	query := `
		SELECT l.log_id, l.medication_id, l.patient_id, m.medication_name,
			l.scheduled_time, l.taken_time, l.status, l.created_at
		FROM medication_logs l
		JOIN medications m ON m.medication_id = l.medication_id
		WHERE l.patient_id = $1 AND l.status = $2 AND l.scheduled_time < $3
		ORDER BY l.scheduled_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, patientID, models.MedicationPending, before)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending medication logs: %w", err)
	}
	defer rows.Close()

	var logs []models.MedicationLog
	for rows.Next() {
		var l models.MedicationLog
		if err := rows.Scan(
			&l.LogID,
			&l.MedicationID,
			&l.PatientID,
			&l.MedicationName,
			&l.ScheduledTime,
			&l.TakenTime,
			&l.Status,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan medication log: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medication logs: %w", err)
	}

	return logs, nil
}

// UpdateStatus 更新服药记录状态（核心仅执行 pending → missed）
func (r *MedicationLogRepository) UpdateStatus(ctx context.Context, logID string, status models.MedicationStatus) error {
	query := `
		UPDATE medication_logs
		SET status = $1
		WHERE log_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, status, logID)
	if err != nil {
		return fmt.Errorf("failed to update medication log status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("medication log not found: %s", logID)
	}

	return nil
}
