package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalguard/internal/models"
)

func fullBounds() models.ThresholdBounds {
	return models.ThresholdBounds{
		MinWarning:  f(50),
		MaxWarning:  f(100),
		MinCritical: f(40),
		MaxCritical: f(120),
	}
}

func TestEvaluate_NilValue(t *testing.T) {
	breach := Evaluate(nil, fullBounds())
	assert.Nil(t, breach)
}

func TestEvaluate_WithinBounds(t *testing.T) {
	breach := Evaluate(f(72), fullBounds())
	assert.Nil(t, breach)
}

func TestEvaluate_CriticalBands(t *testing.T) {
	breach := Evaluate(f(35), fullBounds())
	require.NotNil(t, breach)
	assert.Equal(t, models.SeverityCritical, breach.Severity)
	assert.Equal(t, BoundBelowCritical, breach.Kind)
	assert.Equal(t, 40.0, breach.Threshold)

	breach = Evaluate(f(130), fullBounds())
	require.NotNil(t, breach)
	assert.Equal(t, models.SeverityCritical, breach.Severity)
	assert.Equal(t, BoundAboveCritical, breach.Kind)
	assert.Equal(t, 120.0, breach.Threshold)
}

func TestEvaluate_WarningBands(t *testing.T) {
	// 在 warning 带内但未到 critical
	breach := Evaluate(f(45), fullBounds())
	require.NotNil(t, breach)
	assert.Equal(t, models.SeverityWarning, breach.Severity)
	assert.Equal(t, BoundBelowWarning, breach.Kind)
	assert.Equal(t, 50.0, breach.Threshold)

	breach = Evaluate(f(110), fullBounds())
	require.NotNil(t, breach)
	assert.Equal(t, models.SeverityWarning, breach.Severity)
	assert.Equal(t, BoundAboveWarning, breach.Kind)
	assert.Equal(t, 100.0, breach.Threshold)
}

func TestEvaluate_BoundaryValuesDoNotTrigger(t *testing.T) {
	// 边界值本身不算越界（严格小于/大于）
	assert.Nil(t, Evaluate(f(50), fullBounds()))
	assert.Nil(t, Evaluate(f(100), fullBounds()))
	assert.Nil(t, Evaluate(f(40), fullBounds()))
	assert.Nil(t, Evaluate(f(120), fullBounds()))
}

func TestEvaluate_AbsentBoundNeverTriggers(t *testing.T) {
	// SpO2 形态的配置：无上界
	bounds := models.ThresholdBounds{
		MinWarning:  f(92),
		MinCritical: f(88),
	}

	assert.Nil(t, Evaluate(f(100), bounds))

	breach := Evaluate(f(90), bounds)
	require.NotNil(t, breach)
	assert.Equal(t, models.SeverityWarning, breach.Severity)

	breach = Evaluate(f(85), bounds)
	require.NotNil(t, breach)
	assert.Equal(t, models.SeverityCritical, breach.Severity)
	assert.Equal(t, 88.0, breach.Threshold)
}

func TestEvaluate_MalformedConfigChecksCriticalFirst(t *testing.T) {
	// 畸形配置：min_warning < min_critical，critical 带仍然先被检查
	bounds := models.ThresholdBounds{
		MinWarning:  f(40),
		MinCritical: f(60),
	}

	breach := Evaluate(f(50), bounds)
	require.NotNil(t, breach)
	assert.Equal(t, models.SeverityCritical, breach.Severity)
	assert.Equal(t, BoundBelowCritical, breach.Kind)
	assert.Equal(t, 60.0, breach.Threshold)
}

func TestBoundKind_IsBelow(t *testing.T) {
	assert.True(t, BoundBelowCritical.IsBelow())
	assert.True(t, BoundBelowWarning.IsBelow())
	assert.False(t, BoundAboveCritical.IsBelow())
	assert.False(t, BoundAboveWarning.IsBelow())
}
