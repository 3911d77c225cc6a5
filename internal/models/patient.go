package models

import (
	"time"
)

// RiskLevel 患者风险等级（wire 值固定为小写字符串）
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Patient 患者（仅包含监控核心关心的字段，对应 patients 表）
type Patient struct {
	PatientID        string    `json:"patient_id" db:"patient_id"`
	PatientName      string    `json:"patient_name" db:"patient_name"`
	ConditionSummary string    `json:"condition_summary" db:"condition_summary"` // 自由文本，模拟器用于偏置取值
	RiskLevel        RiskLevel `json:"risk_level" db:"risk_level"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}
