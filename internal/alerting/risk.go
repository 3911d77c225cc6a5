package alerting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vitalguard/internal/models"
	"vitalguard/internal/repository"
)

// RiskScorer 风险评分器：根据滚动窗口内的报警数量重算患者风险等级
type RiskScorer struct {
	window time.Duration
	logger *zap.Logger
}

// NewRiskScorer 创建风险评分器
// window: 报警统计的滚动窗口（默认 1小时）
func NewRiskScorer(window time.Duration, logger *zap.Logger) *RiskScorer {
	return &RiskScorer{
		window: window,
		logger: logger,
	}
}

// UpdateRisk 重算并更新患者风险等级
// 仅在计算结果与当前等级不同时写库（避免冗余写入与下游通知）；
// 返回生效的等级。alerts/patients 仓库由调用方按事务传入。
func (s *RiskScorer) UpdateRisk(
	ctx context.Context,
	alerts *repository.AlertRepository,
	patients *repository.PatientRepository,
	patient *models.Patient,
) (models.RiskLevel, error) {
	since := time.Now().UTC().Add(-s.window)

	criticalCount, err := alerts.CountBySeverity(ctx, patient.PatientID, models.SeverityCritical, since)
	if err != nil {
		return patient.RiskLevel, fmt.Errorf("failed to count critical alerts: %w", err)
	}

	warningCount, err := alerts.CountBySeverity(ctx, patient.PatientID, models.SeverityWarning, since)
	if err != nil {
		return patient.RiskLevel, fmt.Errorf("failed to count warning alerts: %w", err)
	}

	newLevel := riskLevelFor(criticalCount, warningCount)

	if newLevel == patient.RiskLevel {
		return newLevel, nil
	}

	if err := patients.UpdateRiskLevel(ctx, patient.PatientID, newLevel); err != nil {
		return patient.RiskLevel, fmt.Errorf("failed to update risk level: %w", err)
	}

	s.logger.Info("Patient risk level updated",
		zap.String("patient_id", patient.PatientID),
		zap.String("old_level", string(patient.RiskLevel)),
		zap.String("new_level", string(newLevel)),
		zap.Int("critical_count", criticalCount),
		zap.Int("warning_count", warningCount),
	)

	patient.RiskLevel = newLevel
	return newLevel, nil
}

// riskLevelFor 风险等级判定表（按序首个命中）
//  1. critical_count >= 2            → critical
//  2. critical_count >= 1 或 warning_count >= 3 → high
//  3. warning_count >= 1             → medium
//  4. 其余                           → low
func riskLevelFor(criticalCount, warningCount int) models.RiskLevel {
	switch {
	case criticalCount >= 2:
		return models.RiskCritical
	case criticalCount >= 1 || warningCount >= 3:
		return models.RiskHigh
	case warningCount >= 1:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
