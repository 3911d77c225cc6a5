package simulator

import (
	"vitalguard/internal/models"
)

// vitalRange 单个体征的取值区间
type vitalRange struct {
	Min float64
	Max float64
}

// bandNormal 等常量为区间档位名称
const (
	bandNormal   = "normal"
	bandElevated = "elevated"
	bandLow      = "low"
	bandHigh     = "high"
	bandFever    = "fever"
	bandCritical = "critical"
)

// vitalRanges 各体征的医学参考区间（按档位）
var vitalRanges = map[models.VitalType]map[string]vitalRange{
	models.VitalHeartRate: {
		bandNormal:   {Min: 60, Max: 100},
		bandElevated: {Min: 100, Max: 120},
		bandLow:      {Min: 45, Max: 60},
	},
	models.VitalTemperature: {
		bandNormal: {Min: 36.1, Max: 37.2},
		bandFever:  {Min: 37.5, Max: 39.0},
		bandLow:    {Min: 35.0, Max: 36.0},
	},
	models.VitalSpO2: {
		bandNormal:   {Min: 95, Max: 100},
		bandLow:      {Min: 88, Max: 94},
		bandCritical: {Min: 82, Max: 88},
	},
	models.VitalBPSystolic: {
		bandNormal: {Min: 110, Max: 130},
		bandHigh:   {Min: 130, Max: 160},
		bandLow:    {Min: 85, Max: 110},
	},
	models.VitalBPDiastolic: {
		bandNormal: {Min: 70, Max: 85},
		bandHigh:   {Min: 85, Max: 100},
		bandLow:    {Min: 55, Max: 70},
	},
	models.VitalRespiratoryRate: {
		bandNormal:   {Min: 12, Max: 20},
		bandElevated: {Min: 20, Max: 30},
		bandLow:      {Min: 8, Max: 12},
	},
}

// vitalBias 某体征在某病情下的偏置：以 Probability 概率落入 Band 档位
type vitalBias struct {
	Band        string
	Probability float64
}

// conditionProfile 病情画像
type conditionProfile struct {
	Name   string
	Biases map[models.VitalType]vitalBias
}

// conditionProfiles 病情画像表（匹配时按序取首个命中）
var conditionProfiles = []conditionProfile{
	{
		Name: "Hypertension",
		Biases: map[models.VitalType]vitalBias{
			models.VitalHeartRate:   {Band: bandElevated, Probability: 0.3},
			models.VitalBPSystolic:  {Band: bandHigh, Probability: 0.4},
			models.VitalBPDiastolic: {Band: bandHigh, Probability: 0.4},
		},
	},
	{
		Name: "COPD",
		Biases: map[models.VitalType]vitalBias{
			models.VitalSpO2:            {Band: bandLow, Probability: 0.4},
			models.VitalRespiratoryRate: {Band: bandElevated, Probability: 0.3},
		},
	},
	{
		Name: "Heart Failure",
		Biases: map[models.VitalType]vitalBias{
			models.VitalHeartRate: {Band: bandElevated, Probability: 0.3},
			models.VitalSpO2:      {Band: bandLow, Probability: 0.3},
		},
	},
	{
		Name: "Diabetes",
		Biases: map[models.VitalType]vitalBias{
			models.VitalTemperature: {Band: bandNormal, Probability: 0.1},
		},
	},
	{
		Name: "Post-Surgery",
		Biases: map[models.VitalType]vitalBias{
			models.VitalHeartRate:   {Band: bandElevated, Probability: 0.2},
			models.VitalTemperature: {Band: bandFever, Probability: 0.15},
		},
	},
}
