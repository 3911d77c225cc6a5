package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vitalguard/internal/models"
)

// DispatchResult 一次通知投递的结果
// 投递失败不向调用方抛错，仅以 Sent=false 体现
type DispatchResult struct {
	Sent    bool   `json:"sent"`
	Channel string `json:"channel"`
}

// Notifier 危急报警通知能力
type Notifier interface {
	// SendCriticalAlert 投递危急报警通知，永不返回错误
	SendCriticalAlert(ctx context.Context, patientName string, vitalType models.VitalType, value float64, severity models.AlertSeverity) DispatchResult
}

// Publisher MQTT发布能力（*mqtt.Client 满足）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier 经由MQTT网关投递通知（网关侧对接 SMS/WhatsApp）
type MQTTNotifier struct {
	publisher Publisher
	topic     string
	channel   string
	qos       byte
	logger    *zap.Logger
}

// NewMQTTNotifier 创建MQTT通知器
func NewMQTTNotifier(publisher Publisher, topic string, channel string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		publisher: publisher,
		topic:     topic,
		channel:   channel,
		qos:       qos,
		logger:    logger,
	}
}

// notificationMessage 发往通知网关的消息体
type notificationMessage struct {
	PatientName string  `json:"patient_name"`
	VitalType   string  `json:"vital_type"`
	VitalValue  float64 `json:"vital_value"`
	Severity    string  `json:"severity"`
	Message     string  `json:"message"`
	Channel     string  `json:"channel"`
	Timestamp   int64   `json:"timestamp"`
}

// SendCriticalAlert 投递危急报警通知
// 任何失败只记录日志并返回 Sent=false，绝不中断报警创建
func (n *MQTTNotifier) SendCriticalAlert(ctx context.Context, patientName string, vitalType models.VitalType, value float64, severity models.AlertSeverity) DispatchResult {
	msg := notificationMessage{
		PatientName: patientName,
		VitalType:   string(vitalType),
		VitalValue:  value,
		Severity:    string(severity),
		Message:     buildNotificationText(patientName, vitalType, value, severity),
		Channel:     n.channel,
		Timestamp:   time.Now().Unix(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		n.logger.Error("Failed to marshal notification",
			zap.String("patient_name", patientName),
			zap.Error(err),
		)
		return DispatchResult{Sent: false, Channel: n.channel}
	}

	if err := n.publisher.Publish(n.topic, n.qos, false, payload); err != nil {
		n.logger.Error("Failed to dispatch critical alert notification",
			zap.String("patient_name", patientName),
			zap.String("vital_type", string(vitalType)),
			zap.Error(err),
		)
		return DispatchResult{Sent: false, Channel: n.channel}
	}

	n.logger.Info("Critical alert notification dispatched",
		zap.String("patient_name", patientName),
		zap.String("vital_type", string(vitalType)),
		zap.String("channel", n.channel),
	)

	return DispatchResult{Sent: true, Channel: n.channel}
}

// buildNotificationText 构建通知文本
func buildNotificationText(patientName string, vitalType models.VitalType, value float64, severity models.AlertSeverity) string {
	display := VitalDisplayName(vitalType)
	unit := VitalUnit(vitalType)

	return fmt.Sprintf("VitalGuard Alert\nPatient: %s\nAlert: %s\n%s: %v%s\nPlease check the patient immediately.",
		patientName,
		strings.ToUpper(string(severity)),
		display,
		value,
		unit,
	)
}
