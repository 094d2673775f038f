package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow/types"
)

func TestGateEvaluateSufficient(t *testing.T) {
	judge := JudgeFunc(func(_ context.Context, task, output string) (types.EvaluationResult, error) {
		assert.Equal(t, "book a table", task)
		assert.Equal(t, "table booked for 4 at 19:00", output)
		return types.EvaluationResult{Score: 8, Critique: "solid"}, nil
	})
	gate := NewGate(judge, DefaultGateConfig(), nil)

	result, err := gate.Evaluate(context.Background(), "book a table", "table booked for 4 at 19:00")
	require.NoError(t, err)
	assert.True(t, result.Sufficient)
	assert.Equal(t, 8.0, result.Score)
}

func TestGateEvaluateInsufficient(t *testing.T) {
	judge := JudgeFunc(func(_ context.Context, _, _ string) (types.EvaluationResult, error) {
		return types.EvaluationResult{Score: 5, Critique: "missing booking time"}, nil
	})
	gate := NewGate(judge, DefaultGateConfig(), nil)

	result, err := gate.Evaluate(context.Background(), "task", "output")
	require.NoError(t, err)
	assert.False(t, result.Sufficient)
	assert.Equal(t, "missing booking time", result.Critique)
}

func TestGateThresholdIsInclusive(t *testing.T) {
	judge := JudgeFunc(func(_ context.Context, _, _ string) (types.EvaluationResult, error) {
		return types.EvaluationResult{Score: 7}, nil
	})
	gate := NewGate(judge, DefaultGateConfig(), nil)

	result, err := gate.Evaluate(context.Background(), "task", "output")
	require.NoError(t, err)
	assert.True(t, result.Sufficient)
}

func TestGateClampsScores(t *testing.T) {
	tests := []struct {
		name     string
		raw      float64
		expected float64
	}{
		{"below range", -3, 1},
		{"above range", 42, 10},
		{"within range", 6.5, 6.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			judge := JudgeFunc(func(_ context.Context, _, _ string) (types.EvaluationResult, error) {
				return types.EvaluationResult{Score: tt.raw}, nil
			})
			gate := NewGate(judge, DefaultGateConfig(), nil)

			result, err := gate.Evaluate(context.Background(), "task", "output")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Score)
		})
	}
}

func TestGateJudgeError(t *testing.T) {
	judge := JudgeFunc(func(_ context.Context, _, _ string) (types.EvaluationResult, error) {
		return types.EvaluationResult{}, errors.New("model unavailable")
	})
	gate := NewGate(judge, DefaultGateConfig(), nil)

	_, err := gate.Evaluate(context.Background(), "task", "output")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestGateConfigNormalize(t *testing.T) {
	gate := NewGate(JudgeFunc(func(_ context.Context, _, _ string) (types.EvaluationResult, error) {
		return types.EvaluationResult{}, nil
	}), GateConfig{ScoreMin: 9, ScoreMax: 3}, nil)

	cfg := gate.Config()
	assert.Equal(t, 1.0, cfg.ScoreMin)
	assert.Equal(t, 10.0, cfg.ScoreMax)
	assert.Equal(t, 7.0, cfg.AcceptanceThreshold)
}
