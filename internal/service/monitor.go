package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"vitalguard/internal/alerting"
	"vitalguard/internal/broadcast"
	"vitalguard/internal/cache"
	"vitalguard/internal/config"
	"vitalguard/internal/evaluator"
	"vitalguard/internal/models"
	"vitalguard/internal/mqtt"
	"vitalguard/internal/repository"
	"vitalguard/internal/scheduler"
	"vitalguard/internal/simulator"
)

// MonitorService 监控核心服务
// 装配全部组件并驱动监控周期：生成读数 → 评估报警 → 更新风险 → 实时广播。
// 单个患者的读数、报警与风险更新在同一事务内提交。
type MonitorService struct {
	cfg    *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client

	patients       *repository.PatientRepository
	readings       *repository.VitalReadingRepository
	alerts         *repository.AlertRepository
	thresholds     *repository.ThresholdRepository
	medicationLogs *repository.MedicationLogRepository

	store     *evaluator.ThresholdStore
	generator *alerting.Generator
	scorer    *alerting.RiskScorer
	sim       *simulator.Generator
	hub       *broadcast.Hub
	realtime  *cache.RealtimeCache
	scheduler *scheduler.Scheduler
}

// NewMonitorService 创建监控服务（建立数据库/Redis/MQTT连接并装配组件）
func NewMonitorService(cfg *config.Config, logger *zap.Logger) (*MonitorService, error) {
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdle)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	mqttClient, err := mqtt.NewClient(&cfg.MQTT, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect mqtt: %w", err)
	}

	s := &MonitorService{
		cfg:    cfg,
		logger: logger,

		db:          db,
		redisClient: redisClient,
		mqttClient:  mqttClient,

		patients:       repository.NewPatientRepository(db, logger),
		readings:       repository.NewVitalReadingRepository(db, logger),
		alerts:         repository.NewAlertRepository(db, logger),
		thresholds:     repository.NewThresholdRepository(db, logger),
		medicationLogs: repository.NewMedicationLogRepository(db, logger),

		sim:      simulator.NewGenerator(logger),
		hub:      broadcast.NewHub(logger),
		realtime: cache.NewRealtimeCache(redisClient, cfg, logger),
	}

	s.store = evaluator.NewThresholdStore(s.thresholds, logger)

	notifier := alerting.NewMQTTNotifier(
		mqttClient,
		cfg.Monitor.Notification.Topic,
		cfg.Monitor.Notification.Channel,
		cfg.MQTT.QoS,
		logger,
	)
	s.generator = alerting.NewGenerator(s.store, notifier, logger)
	s.scorer = alerting.NewRiskScorer(cfg.RiskWindow(), logger)
	s.scheduler = scheduler.NewScheduler(cfg.SimulationInterval(), s, logger)

	return s, nil
}

// Hub 广播中心（WebSocket接入层挂载连接用）
func (s *MonitorService) Hub() *broadcast.Hub {
	return s.hub
}

// Start 启动监控周期
func (s *MonitorService) Start() {
	s.logger.Info("Monitor service starting",
		zap.Duration("interval", s.cfg.SimulationInterval()),
		zap.Duration("risk_window", s.cfg.RiskWindow()),
		zap.Duration("medication_grace", s.cfg.MedicationGrace()),
	)
	s.scheduler.Start()
}

// Stop 停止监控周期并释放连接
func (s *MonitorService) Stop() {
	s.scheduler.Stop()

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Warn("Failed to close database", zap.Error(err))
		}
	}

	s.logger.Info("Monitor service stopped")
}

// RunCycle 执行一个监控周期：遍历全部患者，逐个处理
// 单个患者失败只记录日志，不影响其余患者
func (s *MonitorService) RunCycle(ctx context.Context) error {
	patients, err := s.patients.ListPatients(ctx)
	if err != nil {
		return fmt.Errorf("failed to list patients: %w", err)
	}

	for i := range patients {
		patient := &patients[i]
		if err := s.processPatient(ctx, patient); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("Failed to process patient",
				zap.String("patient_id", patient.PatientID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// processPatient 单个患者的周期处理：生成读数入库评估，再扫服药记录
func (s *MonitorService) processPatient(ctx context.Context, patient *models.Patient) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing patient %s: %v", patient.PatientID, r)
		}
	}()

	reading := s.sim.NextReading(patient)
	if _, err := s.ingestReading(ctx, reading, patient); err != nil {
		return err
	}

	s.sweepMedications(ctx, patient)
	return nil
}

// ingestReading 读数入库与评估（模拟与手工提交共用的路径）
// 读数、报警与风险更新在同一事务内提交；提交成功后再做广播与缓存，
// 下游投递失败只记录日志，不影响已落库的数据。
func (s *MonitorService) ingestReading(ctx context.Context, reading *models.VitalReading, patient *models.Patient) ([]models.Alert, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	readingsTx := s.readings.WithTx(tx)
	alertsTx := s.alerts.WithTx(tx)
	patientsTx := s.patients.WithTx(tx)

	if err := readingsTx.InsertReading(ctx, reading); err != nil {
		return nil, err
	}

	alerts, err := s.generator.EvaluateReading(ctx, alertsTx, reading, patient)
	if err != nil {
		return nil, err
	}

	if len(alerts) > 0 {
		reading.IsAnomaly = true
		if err := readingsTx.MarkAnomaly(ctx, reading.ReadingID); err != nil {
			return nil, err
		}
		if _, err := s.scorer.UpdateRisk(ctx, alertsTx, patientsTx, patient); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reading: %w", err)
	}

	s.publishReading(ctx, reading, alerts)

	return alerts, nil
}

// publishReading 提交成功后的下游投递：WebSocket广播、快照缓存与Streams发布
func (s *MonitorService) publishReading(ctx context.Context, reading *models.VitalReading, alerts []models.Alert) {
	s.hub.Publish(broadcast.PatientTopic(reading.PatientID), broadcast.EventVitalUpdate, reading)
	for i := range alerts {
		s.hub.PublishAlert(reading.PatientID, &alerts[i])
	}

	if err := s.realtime.SetLatestReading(ctx, reading); err != nil {
		s.logger.Warn("Failed to cache latest reading",
			zap.String("patient_id", reading.PatientID),
			zap.Error(err),
		)
	}
	if err := s.realtime.PublishReading(ctx, reading); err != nil {
		s.logger.Warn("Failed to publish reading to stream",
			zap.String("patient_id", reading.PatientID),
			zap.Error(err),
		)
	}
	for i := range alerts {
		if err := s.realtime.PublishAlert(ctx, &alerts[i]); err != nil {
			s.logger.Warn("Failed to publish alert to stream",
				zap.String("alert_id", alerts[i].AlertID),
				zap.Error(err),
			)
		}
	}
}

// sweepMedications 服药扫描
// 计划时间已过但仍在宽限期内的 pending 记录广播服药提醒；
// 超过宽限期的标记为 missed 并产生 warning 报警。
// 单条记录失败只记录日志，继续处理其余记录。
func (s *MonitorService) sweepMedications(ctx context.Context, patient *models.Patient) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.cfg.MedicationGrace())

	logs, err := s.medicationLogs.ListPendingBefore(ctx, patient.PatientID, now)
	if err != nil {
		s.logger.Error("Failed to list pending medications",
			zap.String("patient_id", patient.PatientID),
			zap.Error(err),
		)
		return
	}

	for i := range logs {
		log := &logs[i]

		if !log.ScheduledTime.Before(cutoff) {
			// 宽限期内：提醒，不改状态
			s.hub.Publish(broadcast.PatientTopic(patient.PatientID), broadcast.EventMedicationReminder, log)
			continue
		}

		if err := s.markMedicationMissed(ctx, patient, log); err != nil {
			s.logger.Error("Failed to mark medication missed",
				zap.String("log_id", log.LogID),
				zap.Error(err),
			)
		}
	}
}

// markMedicationMissed 单条服药记录的漏服处理
// 状态变更与报警写入同一事务提交，提交成功后再做广播与流发布
func (s *MonitorService) markMedicationMissed(ctx context.Context, patient *models.Patient, log *models.MedicationLog) error {
	alert := &models.Alert{
		AlertID:   uuid.New().String(),
		PatientID: patient.PatientID,
		AlertType: models.AlertMedicationMissed,
		Severity:  models.SeverityWarning,
		Message: fmt.Sprintf("Missed medication: %s was scheduled at %s",
			log.MedicationName, log.ScheduledTime.Format("15:04")),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.medicationLogs.WithTx(tx).UpdateStatus(ctx, log.LogID, models.MedicationMissed); err != nil {
		return err
	}
	if err := s.alerts.WithTx(tx).InsertAlert(ctx, alert); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit medication sweep: %w", err)
	}

	s.logger.Warn("Medication missed",
		zap.String("patient_id", patient.PatientID),
		zap.String("medication_name", log.MedicationName),
		zap.Time("scheduled_time", log.ScheduledTime),
	)

	s.hub.PublishAlert(patient.PatientID, alert)
	if err := s.realtime.PublishAlert(ctx, alert); err != nil {
		s.logger.Warn("Failed to publish alert to stream",
			zap.String("alert_id", alert.AlertID),
			zap.Error(err),
		)
	}

	return nil
}

// SubmitReading 手工提交一条读数（护士录入或外部设备接入）
// 走与模拟读数相同的入库与评估路径，返回评估产生的报警
func (s *MonitorService) SubmitReading(ctx context.Context, reading *models.VitalReading) ([]models.Alert, error) {
	patient, err := s.patients.GetPatient(ctx, reading.PatientID)
	if err != nil {
		return nil, err
	}

	if reading.ReadingID == "" {
		reading.ReadingID = uuid.New().String()
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	if reading.Source == "" {
		reading.Source = models.SourceManual
	}

	return s.ingestReading(ctx, reading, patient)
}

// AcknowledgeAlert 确认报警并广播确认事件
func (s *MonitorService) AcknowledgeAlert(ctx context.Context, alertID string, acknowledgedBy string) error {
	if err := s.alerts.AcknowledgeAlert(ctx, alertID, acknowledgedBy, time.Now().UTC()); err != nil {
		return err
	}

	s.hub.Publish(broadcast.TopicAllAlerts, broadcast.EventAlertAcknowledged, map[string]string{
		"alert_id":        alertID,
		"acknowledged_by": acknowledgedBy,
	})

	return nil
}

// SetThreshold 写入或更新患者阈值（写入前校验边界顺序）
func (s *MonitorService) SetThreshold(ctx context.Context, t *models.AlertThreshold) error {
	if err := t.Validate(); err != nil {
		return err
	}

	if t.ThresholdID == "" {
		t.ThresholdID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	return s.thresholds.UpsertThreshold(ctx, t)
}

// ApplyDefaultThresholds 为患者写入系统默认阈值快照（建档时调用）
func (s *MonitorService) ApplyDefaultThresholds(ctx context.Context, patientID string) error {
	return s.thresholds.InsertThresholds(ctx, evaluator.DefaultThresholds(patientID))
}

// VitalStatus 单个体征的当前值与状态
type VitalStatus struct {
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

// VitalsSummary 患者最新体征汇总
type VitalsSummary struct {
	PatientID string                 `json:"patient_id"`
	Timestamp time.Time              `json:"timestamp"`
	Vitals    map[string]VitalStatus `json:"vitals"`
	Overall   string                 `json:"overall_status"`
}

// vitalStatusRank 状态排序：overall 取各体征中最差的一项
var vitalStatusRank = map[string]int{
	"normal":   0,
	"warning":  1,
	"critical": 2,
}

// LatestVitals 患者最新体征汇总（缓存优先，缺失回源数据库）
// 每个体征按当前有效阈值标注 normal/warning/critical，整体状态取最差项
func (s *MonitorService) LatestVitals(ctx context.Context, patientID string) (*VitalsSummary, error) {
	reading, err := s.realtime.GetLatestReading(ctx, patientID)
	if err != nil {
		s.logger.Warn("Failed to read latest vitals cache",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
	}
	if reading == nil {
		reading, err = s.readings.GetLatestReading(ctx, patientID)
		if err != nil {
			return nil, err
		}
		if reading == nil {
			return nil, nil
		}
	}

	summary := &VitalsSummary{
		PatientID: patientID,
		Timestamp: reading.Timestamp,
		Vitals:    make(map[string]VitalStatus),
		Overall:   "normal",
	}

	for _, vt := range []models.VitalType{
		models.VitalHeartRate,
		models.VitalSpO2,
		models.VitalTemperature,
		models.VitalBPSystolic,
		models.VitalBPDiastolic,
		models.VitalRespiratoryRate,
	} {
		value := reading.Value(vt)
		if value == nil {
			continue
		}

		bounds, err := s.store.BoundsFor(ctx, patientID, vt)
		if err != nil {
			return nil, err
		}

		status := "normal"
		if breach := evaluator.Evaluate(value, bounds); breach != nil {
			switch breach.Severity {
			case models.SeverityCritical:
				status = "critical"
			default:
				status = "warning"
			}
		}

		summary.Vitals[string(vt)] = VitalStatus{Value: *value, Status: status}
		if vitalStatusRank[status] > vitalStatusRank[summary.Overall] {
			summary.Overall = status
		}
	}

	return summary, nil
}
