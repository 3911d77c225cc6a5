package models

import (
	"time"
)

// MedicationStatus 服药记录状态
type MedicationStatus string

const (
	MedicationPending MedicationStatus = "pending"
	MedicationTaken   MedicationStatus = "taken"
	MedicationMissed  MedicationStatus = "missed"
	MedicationSkipped MedicationStatus = "skipped"
)

// MedicationLog 服药记录（对应 medication_logs 表，JOIN medications 取药品名）
// 核心只执行 pending → missed 这一种状态变更
type MedicationLog struct {
	LogID          string           `json:"log_id" db:"log_id"`
	MedicationID   string           `json:"medication_id" db:"medication_id"`
	PatientID      string           `json:"patient_id" db:"patient_id"`
	MedicationName string           `json:"medication_name" db:"medication_name"`
	ScheduledTime  time.Time        `json:"scheduled_time" db:"scheduled_time"`
	TakenTime      *time.Time       `json:"taken_time,omitempty" db:"taken_time"`
	Status         MedicationStatus `json:"status" db:"status"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}
