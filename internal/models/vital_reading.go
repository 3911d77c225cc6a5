package models

import (
	"time"
)

// VitalType 生命体征类型
type VitalType string

const (
	VitalHeartRate       VitalType = "heart_rate"
	VitalSpO2            VitalType = "spo2"
	VitalTemperature     VitalType = "temperature"
	VitalBPSystolic      VitalType = "blood_pressure_systolic"
	VitalBPDiastolic     VitalType = "blood_pressure_diastolic"
	VitalRespiratoryRate VitalType = "respiratory_rate"
)

// 数据来源标记
const (
	SourceSimulated = "simulated"
	SourceManual    = "manual"
	SourceSensor    = "sensor"
)

// VitalReading 一次生命体征读数（对应 vital_readings 表，创建后不可变）
// is_anomaly 在评估产生至少一条报警时由调用方置为 true
type VitalReading struct {
	ReadingID string    `json:"reading_id" db:"reading_id"`
	PatientID string    `json:"patient_id" db:"patient_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	HeartRate       *float64 `json:"heart_rate,omitempty" db:"heart_rate"`
	SpO2            *float64 `json:"spo2,omitempty" db:"spo2"`
	Temperature     *float64 `json:"temperature,omitempty" db:"temperature"`
	BPSystolic      *int     `json:"blood_pressure_systolic,omitempty" db:"blood_pressure_systolic"`
	BPDiastolic     *int     `json:"blood_pressure_diastolic,omitempty" db:"blood_pressure_diastolic"`
	RespiratoryRate *float64 `json:"respiratory_rate,omitempty" db:"respiratory_rate"`

	Source       string   `json:"source" db:"source"`
	DeviceID     *string  `json:"device_id,omitempty" db:"device_id"`
	IsAnomaly    bool     `json:"is_anomaly" db:"is_anomaly"`
	AnomalyScore *float64 `json:"anomaly_score,omitempty" db:"anomaly_score"` // 预留给扩展，核心不计算
}

// Value 按类型取读数值（blood pressure 转为 float 便于统一评估）
func (r *VitalReading) Value(vt VitalType) *float64 {
	switch vt {
	case VitalHeartRate:
		return r.HeartRate
	case VitalSpO2:
		return r.SpO2
	case VitalTemperature:
		return r.Temperature
	case VitalRespiratoryRate:
		return r.RespiratoryRate
	case VitalBPSystolic:
		if r.BPSystolic == nil {
			return nil
		}
		v := float64(*r.BPSystolic)
		return &v
	case VitalBPDiastolic:
		if r.BPDiastolic == nil {
			return nil
		}
		v := float64(*r.BPDiastolic)
		return &v
	}
	return nil
}
