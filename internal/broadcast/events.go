package broadcast

import "fmt"

// 实时事件名
const (
	EventVitalUpdate        = "vital:update"
	EventAlertNew           = "alert:new"
	EventAlertAcknowledged  = "alert:acknowledged"
	EventMedicationReminder = "medication:reminder"
	EventChatMessage        = "chat:message"
)

// TopicAllAlerts 全局报警主题（医生工作台订阅）
const TopicAllAlerts = "alerts:all"

// PatientTopic 某患者的实时更新主题
func PatientTopic(patientID string) string {
	return fmt.Sprintf("patient:%s", patientID)
}

// UserTopic 某用户的私有消息主题
func UserTopic(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}
