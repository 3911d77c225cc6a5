package evaluator

import (
	"vitalguard/internal/models"
)

// BoundKind 被越过的边界类型
type BoundKind string

const (
	BoundNone          BoundKind = "none"
	BoundBelowCritical BoundKind = "below_critical"
	BoundAboveCritical BoundKind = "above_critical"
	BoundBelowWarning  BoundKind = "below_warning"
	BoundAboveWarning  BoundKind = "above_warning"
)

// Breach 一次阈值越界的评估结果
type Breach struct {
	Severity  models.AlertSeverity
	Kind      BoundKind
	Threshold float64 // 被越过的边界值
}

// Evaluate 评估单个读数值是否越界
// 检查顺序固定且有意义：critical-low → critical-high → warning-low → warning-high，
// 首个命中即返回。畸形配置（如 min_warning < min_critical）下仍按此顺序报告。
// value 为 nil 或边界缺省时不触发，返回 nil 表示无越界。
func Evaluate(value *float64, bounds models.ThresholdBounds) *Breach {
	if value == nil {
		return nil
	}
	v := *value

	if bounds.MinCritical != nil && v < *bounds.MinCritical {
		return &Breach{Severity: models.SeverityCritical, Kind: BoundBelowCritical, Threshold: *bounds.MinCritical}
	}
	if bounds.MaxCritical != nil && v > *bounds.MaxCritical {
		return &Breach{Severity: models.SeverityCritical, Kind: BoundAboveCritical, Threshold: *bounds.MaxCritical}
	}
	if bounds.MinWarning != nil && v < *bounds.MinWarning {
		return &Breach{Severity: models.SeverityWarning, Kind: BoundBelowWarning, Threshold: *bounds.MinWarning}
	}
	if bounds.MaxWarning != nil && v > *bounds.MaxWarning {
		return &Breach{Severity: models.SeverityWarning, Kind: BoundAboveWarning, Threshold: *bounds.MaxWarning}
	}

	return nil
}

// IsBelow 是否越过下界
func (k BoundKind) IsBelow() bool {
	return k == BoundBelowCritical || k == BoundBelowWarning
}
