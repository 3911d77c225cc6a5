package simulator

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vitalguard/internal/models"
)

// maxStepFraction 相邻两次读数的最大变化幅度（占区间宽度比例）
const maxStepFraction = 0.15

// simulatedVitals 每次读数生成的体征（顺序固定）
var simulatedVitals = []models.VitalType{
	models.VitalHeartRate,
	models.VitalTemperature,
	models.VitalSpO2,
	models.VitalBPSystolic,
	models.VitalBPDiastolic,
	models.VitalRespiratoryRate,
}

// Generator 体征流生成器
// 按患者维护上一次读数状态，保证相邻读数平滑过渡；
// 生成的数据结构与真实IoT设备上报一致，可无缝替换为传感器输入。
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	states map[string]map[models.VitalType]float64
	logger *zap.Logger
}

// NewGenerator 创建体征流生成器
func NewGenerator(logger *zap.Logger) *Generator {
	return newGeneratorWithRand(rand.New(rand.NewSource(time.Now().UnixNano())), logger)
}

func newGeneratorWithRand(rng *rand.Rand, logger *zap.Logger) *Generator {
	return &Generator{
		rng:    rng,
		states: make(map[string]map[models.VitalType]float64),
		logger: logger,
	}
}

// profileFor 根据病情描述匹配画像（大小写不敏感的子串匹配，按表序首个命中）
func profileFor(condition string) conditionProfile {
	if condition != "" {
		lower := strings.ToLower(condition)
		for _, p := range conditionProfiles {
			if strings.Contains(lower, strings.ToLower(p.Name)) {
				return p
			}
		}
	}
	return conditionProfile{Name: "default"}
}

// NextReading 为患者生成下一条读数
// 同一患者的连续调用产生平滑变化的序列；不同患者状态互不影响。
func (g *Generator) NextReading(patient *models.Patient) *models.VitalReading {
	profile := profileFor(patient.ConditionSummary)

	g.mu.Lock()
	state, ok := g.states[patient.PatientID]
	if !ok {
		state = make(map[models.VitalType]float64)
		g.states[patient.PatientID] = state
	}

	values := make(map[models.VitalType]float64, len(simulatedVitals))
	for _, vt := range simulatedVitals {
		var prev *float64
		if v, found := state[vt]; found {
			prev = &v
		}
		value := g.nextValue(vt, profile, prev)
		state[vt] = value
		values[vt] = value
	}
	g.mu.Unlock()

	deviceID := simulatedDeviceID(patient.PatientID)
	bpSys := int(values[models.VitalBPSystolic])
	bpDia := int(values[models.VitalBPDiastolic])
	heartRate := values[models.VitalHeartRate]
	temperature := values[models.VitalTemperature]
	spo2 := values[models.VitalSpO2]
	respiratoryRate := values[models.VitalRespiratoryRate]

	return &models.VitalReading{
		ReadingID:       uuid.New().String(),
		PatientID:       patient.PatientID,
		Timestamp:       time.Now().UTC(),
		HeartRate:       &heartRate,
		Temperature:     &temperature,
		SpO2:            &spo2,
		BPSystolic:      &bpSys,
		BPDiastolic:     &bpDia,
		RespiratoryRate: &respiratoryRate,
		Source:          models.SourceSimulated,
		DeviceID:        &deviceID,
	}
}

// Reset 清除某患者的状态（患者删除时调用，避免状态表无限增长）
func (g *Generator) Reset(patientID string) {
	g.mu.Lock()
	delete(g.states, patientID)
	g.mu.Unlock()
}

// nextValue 生成单个体征值（调用方须持有 g.mu）
// 有上一次值时限制本次变化不超过区间宽度的 15%；档位切换时区间可能不含上一次值，
// 此时夹取后的上下界会反转，直接在反转区间上取值即可实现向新档位的渐进移动。
func (g *Generator) nextValue(vt models.VitalType, profile conditionProfile, prev *float64) float64 {
	bands, ok := vitalRanges[vt]
	if !ok {
		return 0
	}

	band := bandNormal
	if bias, found := profile.Biases[vt]; found {
		if g.rng.Float64() < bias.Probability {
			band = bias.Band
		}
	}

	r, ok := bands[band]
	if !ok {
		r = bands[bandNormal]
	}

	var value float64
	if prev != nil {
		maxChange := (r.Max - r.Min) * maxStepFraction
		lo := math.Max(r.Min, *prev-maxChange)
		hi := math.Min(r.Max, *prev+maxChange)
		value = lo + g.rng.Float64()*(hi-lo)
	} else {
		value = r.Min + g.rng.Float64()*(r.Max-r.Min)
	}

	if vt == models.VitalTemperature {
		return math.Round(value*10) / 10
	}
	return math.Round(value)
}

// simulatedDeviceID 由患者ID派生稳定的模拟设备号
func simulatedDeviceID(patientID string) string {
	compact := strings.ToUpper(strings.ReplaceAll(patientID, "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return "SIM-DEVICE-" + compact
}
