package repository

import (
	"context"
	"database/sql"
	"fmt"

	"vitalguard/internal/models"

	"go.uber.org/zap"
)

// PatientRepository 患者仓库
type PatientRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPatientRepository 创建患者仓库
func NewPatientRepository(db DBTX, logger *zap.Logger) *PatientRepository {
	return &PatientRepository{
		db:     db,
		logger: logger,
	}
}

// WithTx 返回绑定到事务的仓库副本
func (r *PatientRepository) WithTx(tx *sql.Tx) *PatientRepository {
	return &PatientRepository{db: tx, logger: r.logger}
}

// ListPatients 获取全部患者（每个模拟周期的起点）
func (r *PatientRepository) ListPatients(ctx context.Context) ([]models.Patient, error) {
	query := `
		SELECT patient_id, patient_name, COALESCE(condition_summary, ''), risk_level, created_at, updated_at
		FROM patients
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	var patients []models.Patient
	for rows.Next() {
		var p models.Patient
		if err := rows.Scan(
			&p.PatientID,
			&p.PatientName,
			&p.ConditionSummary,
			&p.RiskLevel,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate patients: %w", err)
	}

	return patients, nil
}

// GetPatient 根据ID获取患者
func (r *PatientRepository) GetPatient(ctx context.Context, patientID string) (*models.Patient, error) {
	query := `
		SELECT patient_id, patient_name, COALESCE(condition_summary, ''), risk_level, created_at, updated_at
		FROM patients
		WHERE patient_id = $1
	`

	var p models.Patient
	err := r.db.QueryRowContext(ctx, query, patientID).Scan(
		&p.PatientID,
		&p.PatientName,
		&p.ConditionSummary,
		&p.RiskLevel,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("patient not found: %s", patientID)
		}
		return nil, fmt.Errorf("failed to query patient: %w", err)
	}

	return &p, nil
}

// UpdateRiskLevel 更新患者风险等级（仅在等级变化时由风险评分器调用）
func (r *PatientRepository) UpdateRiskLevel(ctx context.Context, patientID string, level models.RiskLevel) error {
	query := `
		UPDATE patients
		SET risk_level = $1, updated_at = NOW()
		WHERE patient_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, level, patientID)
	if err != nil {
		return fmt.Errorf("failed to update risk level: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("patient not found: %s", patientID)
	}

	return nil
}
