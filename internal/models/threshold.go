package models

import (
	"fmt"
	"time"
)

// ThresholdBounds 四段阈值配置，任一边界可缺省（nil 表示该侧无界）
type ThresholdBounds struct {
	MinWarning  *float64 `json:"min_warning,omitempty"`
	MaxWarning  *float64 `json:"max_warning,omitempty"`
	MinCritical *float64 `json:"min_critical,omitempty"`
	MaxCritical *float64 `json:"max_critical,omitempty"`
}

// AlertThreshold 患者级阈值记录（对应 alert_thresholds 表，(patient_id, vital_type) 唯一）
type AlertThreshold struct {
	ThresholdID string    `json:"threshold_id" db:"threshold_id"`
	PatientID   string    `json:"patient_id" db:"patient_id"`
	VitalType   VitalType `json:"vital_type" db:"vital_type"`
	ThresholdBounds
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate 校验阈值顺序：min_critical ≤ min_warning ≤ max_warning ≤ max_critical
// 缺省的边界不参与比较
func (b ThresholdBounds) Validate() error {
	pairs := []struct {
		lo, hi *float64
		name   string
	}{
		{b.MinCritical, b.MinWarning, "min_critical must be <= min_warning"},
		{b.MinWarning, b.MaxWarning, "min_warning must be <= max_warning"},
		{b.MaxWarning, b.MaxCritical, "max_warning must be <= max_critical"},
		{b.MinCritical, b.MaxCritical, "min_critical must be <= max_critical"},
	}
	for _, p := range pairs {
		if p.lo != nil && p.hi != nil && *p.lo > *p.hi {
			return fmt.Errorf("invalid threshold bounds: %s", p.name)
		}
	}
	return nil
}
