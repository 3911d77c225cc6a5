package models

import (
	"time"
)

// AlertSeverity 报警严重度（有序：info < warning < critical < emergency）
type AlertSeverity string

const (
	SeverityInfo      AlertSeverity = "info"
	SeverityWarning   AlertSeverity = "warning"
	SeverityCritical  AlertSeverity = "critical"
	SeverityEmergency AlertSeverity = "emergency"
)

// AlertType 报警类型
type AlertType string

const (
	AlertVitalWarning     AlertType = "vital_warning"
	AlertVitalCritical    AlertType = "vital_critical"
	AlertMedicationMissed AlertType = "medication_missed"
	AlertAnomalyDetected  AlertType = "anomaly_detected"
)

// Alert 报警事件（对应 alerts 表）
// 仅由报警生成器创建；确认（acknowledge）是唯一允许的后续变更
type Alert struct {
	AlertID        string    `json:"alert_id" db:"alert_id"`
	PatientID      string    `json:"patient_id" db:"patient_id"`
	VitalReadingID *string   `json:"vital_reading_id,omitempty" db:"vital_reading_id"`

	AlertType AlertType     `json:"alert_type" db:"alert_type"`
	Severity  AlertSeverity `json:"severity" db:"severity"`
	Message   string        `json:"message" db:"message"`

	VitalType         *string  `json:"vital_type,omitempty" db:"vital_type"`
	VitalValue        *float64 `json:"vital_value,omitempty" db:"vital_value"`
	ThresholdBreached *float64 `json:"threshold_breached,omitempty" db:"threshold_breached"`

	IsAcknowledged bool       `json:"is_acknowledged" db:"is_acknowledged"`
	AcknowledgedBy *string    `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty" db:"acknowledged_at"`

	NotificationSent    bool    `json:"notification_sent" db:"notification_sent"`
	NotificationChannel *string `json:"notification_channel,omitempty" db:"notification_channel"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
