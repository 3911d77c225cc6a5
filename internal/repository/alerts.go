package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vitalguard/internal/models"

	"go.uber.org/zap"
)

// AlertRepository 报警仓库
type AlertRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewAlertRepository 创建报警仓库
func NewAlertRepository(db DBTX, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx 返回绑定到事务的仓库副本
func (r *AlertRepository) WithTx(tx *sql.Tx) *AlertRepository {
	return &AlertRepository{db: tx, logger: r.logger}
}

// InsertAlert 插入报警记录
func (r *AlertRepository) InsertAlert(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (
			alert_id, patient_id, vital_reading_id,
			alert_type, severity, message,
			vital_type, vital_value, threshold_breached,
			is_acknowledged, acknowledged_by, acknowledged_at,
			notification_sent, notification_channel, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.ExecContext(ctx, query,
		alert.AlertID,
		alert.PatientID,
		alert.VitalReadingID,
		alert.AlertType,
		alert.Severity,
		alert.Message,
		alert.VitalType,
		alert.VitalValue,
		alert.ThresholdBreached,
		alert.IsAcknowledged,
		alert.AcknowledgedBy,
		alert.AcknowledgedAt,
		alert.NotificationSent,
		alert.NotificationChannel,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// CountBySeverity 统计某患者指定时间之后、指定严重度的报警数量（风险评分窗口）
func (r *AlertRepository) CountBySeverity(ctx context.Context, patientID string, severity models.AlertSeverity, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM alerts
		WHERE patient_id = $1 AND severity = $2 AND created_at >= $3
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, patientID, severity, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	return count, nil
}

// AlertFilters 报警查询过滤条件
type AlertFilters struct {
	Severity     *models.AlertSeverity
	Acknowledged *bool
	Since        *time.Time
}

// ListAlerts 查询某患者的报警（按创建时间降序）
func (r *AlertRepository) ListAlerts(ctx context.Context, patientID string, filters AlertFilters) ([]models.Alert, error) {
	query := `
		SELECT alert_id, patient_id, vital_reading_id,
			alert_type, severity, message,
			vital_type, vital_value, threshold_breached,
			is_acknowledged, acknowledged_by, acknowledged_at,
			notification_sent, notification_channel, created_at
		FROM alerts
		WHERE patient_id = $1
	`
	args := []interface{}{patientID}

	if filters.Severity != nil {
		args = append(args, *filters.Severity)
		query += fmt.Sprintf(" AND severity = $%d", len(args))
	}
	if filters.Acknowledged != nil {
		args = append(args, *filters.Acknowledged)
		query += fmt.Sprintf(" AND is_acknowledged = $%d", len(args))
	}
	if filters.Since != nil {
		args = append(args, *filters.Since)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(
			&a.AlertID,
			&a.PatientID,
			&a.VitalReadingID,
			&a.AlertType,
			&a.Severity,
			&a.Message,
			&a.VitalType,
			&a.VitalValue,
			&a.ThresholdBreached,
			&a.IsAcknowledged,
			&a.AcknowledgedBy,
			&a.AcknowledgedAt,
			&a.NotificationSent,
			&a.NotificationChannel,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}

	return alerts, nil
}

// AcknowledgeAlert 确认报警（报警创建后唯一允许的变更）
func (r *AlertRepository) AcknowledgeAlert(ctx context.Context, alertID string, acknowledgedBy string, acknowledgedAt time.Time) error {
	query := `
		UPDATE alerts
		SET is_acknowledged = TRUE, acknowledged_by = $1, acknowledged_at = $2
		WHERE alert_id = $3
	`

	result, err := r.db.ExecContext(ctx, query, acknowledgedBy, acknowledgedAt, alertID)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}

	return nil
}
