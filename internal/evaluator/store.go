package evaluator

import (
	"context"
	"time"

	"vitalguard/internal/models"
	"vitalguard/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func f(v float64) *float64 { return &v }

// defaultBounds 系统默认阈值表（患者无显式配置时的回退值）
// SpO2 无有意义的上界，max 侧缺省
var defaultBounds = map[models.VitalType]models.ThresholdBounds{
	models.VitalHeartRate: {
		MinWarning:  f(50),
		MaxWarning:  f(100),
		MinCritical: f(40),
		MaxCritical: f(120),
	},
	models.VitalSpO2: {
		MinWarning:  f(92),
		MinCritical: f(88),
	},
	models.VitalTemperature: {
		MinWarning:  f(36.0),
		MaxWarning:  f(37.5),
		MinCritical: f(35.0),
		MaxCritical: f(38.5),
	},
}

// defaultVitalOrder 默认表的遍历顺序（建档快照的写入顺序固定）
var defaultVitalOrder = []models.VitalType{
	models.VitalHeartRate,
	models.VitalSpO2,
	models.VitalTemperature,
}

// ThresholdStore 阈值存取：显式记录优先，缺失时回退系统默认表
type ThresholdStore struct {
	repo   *repository.ThresholdRepository
	logger *zap.Logger
}

// NewThresholdStore 创建阈值存取器
func NewThresholdStore(repo *repository.ThresholdRepository, logger *zap.Logger) *ThresholdStore {
	return &ThresholdStore{
		repo:   repo,
		logger: logger,
	}
}

// BoundsFor 获取某患者某体征类型的有效阈值
// 配置缺失不是错误：无显式记录时回退默认表，默认表也无该类型时返回全缺省边界（永不触发）
func (s *ThresholdStore) BoundsFor(ctx context.Context, patientID string, vitalType models.VitalType) (models.ThresholdBounds, error) {
	t, err := s.repo.GetThreshold(ctx, patientID, vitalType)
	if err != nil {
		return models.ThresholdBounds{}, err
	}
	if t != nil {
		return t.ThresholdBounds, nil
	}

	if bounds, ok := defaultBounds[vitalType]; ok {
		return bounds, nil
	}

	return models.ThresholdBounds{}, nil
}

// DefaultBounds 获取某体征类型的系统默认阈值（只读副本）
func DefaultBounds(vitalType models.VitalType) (models.ThresholdBounds, bool) {
	bounds, ok := defaultBounds[vitalType]
	return bounds, ok
}

// DefaultThresholds 为新建档患者生成默认阈值记录快照
// 快照写入后默认表的后续变更不再影响该患者；写入由患者建档方执行
func DefaultThresholds(patientID string) []models.AlertThreshold {
	now := time.Now().UTC()

	thresholds := make([]models.AlertThreshold, 0, len(defaultVitalOrder))
	for _, vt := range defaultVitalOrder {
		thresholds = append(thresholds, models.AlertThreshold{
			ThresholdID:     uuid.New().String(),
			PatientID:       patientID,
			VitalType:       vt,
			ThresholdBounds: defaultBounds[vt],
			CreatedAt:       now,
		})
	}

	return thresholds
}
