package alerting

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vitalguard/internal/evaluator"
	"vitalguard/internal/models"
	"vitalguard/internal/repository"
)

// evaluatedVitals 参与阈值评估的体征类型（顺序固定）
var evaluatedVitals = []models.VitalType{
	models.VitalHeartRate,
	models.VitalSpO2,
	models.VitalTemperature,
}

var vitalDisplayNames = map[models.VitalType]string{
	models.VitalHeartRate:   "Heart Rate",
	models.VitalSpO2:        "SpO2",
	models.VitalTemperature: "Temperature",
}

var vitalUnits = map[models.VitalType]string{
	models.VitalHeartRate:   "bpm",
	models.VitalSpO2:        "%",
	models.VitalTemperature: "°C",
}

// VitalDisplayName 体征类型的显示名
func VitalDisplayName(vt models.VitalType) string {
	if name, ok := vitalDisplayNames[vt]; ok {
		return name
	}
	return string(vt)
}

// VitalUnit 体征类型的单位
func VitalUnit(vt models.VitalType) string {
	return vitalUnits[vt]
}

// ThresholdSource 有效阈值来源（evaluator.ThresholdStore 满足）
type ThresholdSource interface {
	BoundsFor(ctx context.Context, patientID string, vitalType models.VitalType) (models.ThresholdBounds, error)
}

// Generator 报警生成器：对一条读数评估全部体征并创建报警
type Generator struct {
	thresholds ThresholdSource
	notifier   Notifier
	logger     *zap.Logger
}

// NewGenerator 创建报警生成器
func NewGenerator(thresholds ThresholdSource, notifier Notifier, logger *zap.Logger) *Generator {
	return &Generator{
		thresholds: thresholds,
		notifier:   notifier,
		logger:     logger,
	}
}

// EvaluateReading 评估一条读数并创建报警，返回全部已创建的报警
// 每个越界的体征独立产生一条报警；危急报警触发通知投递，投递失败不回滚报警。
// alerts 仓库由调用方按事务传入。每条读数只应评估一次。
func (g *Generator) EvaluateReading(
	ctx context.Context,
	alerts *repository.AlertRepository,
	reading *models.VitalReading,
	patient *models.Patient,
) ([]models.Alert, error) {
	var created []models.Alert

	for _, vt := range evaluatedVitals {
		value := reading.Value(vt)
		if value == nil {
			continue
		}

		bounds, err := g.thresholds.BoundsFor(ctx, patient.PatientID, vt)
		if err != nil {
			return created, fmt.Errorf("failed to resolve thresholds for %s: %w", vt, err)
		}

		breach := evaluator.Evaluate(value, bounds)
		if breach == nil {
			continue
		}

		alert := g.buildAlert(reading, patient, vt, *value, breach)

		// 危急报警先投递通知，结果记录在报警上；失败只降级为 sent=false
		if breach.Severity == models.SeverityCritical {
			result := g.notifier.SendCriticalAlert(ctx, patient.PatientName, vt, *value, breach.Severity)
			alert.NotificationSent = result.Sent
			if result.Channel != "" {
				channel := result.Channel
				alert.NotificationChannel = &channel
			}
		}

		if err := alerts.InsertAlert(ctx, alert); err != nil {
			return created, fmt.Errorf("failed to insert alert for %s: %w", vt, err)
		}

		g.logger.Warn("Alert created",
			zap.String("patient_id", patient.PatientID),
			zap.String("vital_type", string(vt)),
			zap.String("severity", string(breach.Severity)),
			zap.String("message", alert.Message),
		)

		created = append(created, *alert)
	}

	return created, nil
}

// buildAlert 根据越界结果构建报警记录
func (g *Generator) buildAlert(
	reading *models.VitalReading,
	patient *models.Patient,
	vt models.VitalType,
	value float64,
	breach *evaluator.Breach,
) *models.Alert {
	direction := "high"
	if breach.Kind.IsBelow() {
		direction = "low"
	}

	display := VitalDisplayName(vt)
	unit := VitalUnit(vt)
	message := fmt.Sprintf("%s is too %s: %s%s (threshold: %s%s)",
		display, direction,
		formatVitalValue(value), unit,
		formatVitalValue(breach.Threshold), unit,
	)

	alertType := models.AlertVitalWarning
	if breach.Severity == models.SeverityCritical {
		alertType = models.AlertVitalCritical
	}

	readingID := reading.ReadingID
	vitalType := string(vt)
	threshold := breach.Threshold

	return &models.Alert{
		AlertID:           uuid.New().String(),
		PatientID:         patient.PatientID,
		VitalReadingID:    &readingID,
		AlertType:         alertType,
		Severity:          breach.Severity,
		Message:           message,
		VitalType:         &vitalType,
		VitalValue:        &value,
		ThresholdBreached: &threshold,
		CreatedAt:         time.Now().UTC(),
	}
}

// formatVitalValue 数值格式化：整数不带小数位，温度类保留一位小数
func formatVitalValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
