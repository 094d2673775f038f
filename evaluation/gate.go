package evaluation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// Judge scores a worker's output for a task. Implementations may call a
// language model or apply a deterministic policy; the gate only looks
// at the returned result.
type Judge interface {
	Score(ctx context.Context, task, output string) (types.EvaluationResult, error)
}

// JudgeFunc adapts a function to the Judge interface.
type JudgeFunc func(ctx context.Context, task, output string) (types.EvaluationResult, error)

// Score implements Judge.
func (f JudgeFunc) Score(ctx context.Context, task, output string) (types.EvaluationResult, error) {
	return f(ctx, task, output)
}

// GateConfig bounds the gate's score range and acceptance threshold.
type GateConfig struct {
	// AcceptanceThreshold is the minimum sufficient score.
	AcceptanceThreshold float64 `yaml:"acceptance_threshold" json:"acceptance_threshold"`
	// ScoreMin and ScoreMax bound the judge's scores.
	ScoreMin float64 `yaml:"score_min" json:"score_min"`
	ScoreMax float64 `yaml:"score_max" json:"score_max"`
}

// DefaultGateConfig returns the stock 1-10 range with threshold 7.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		AcceptanceThreshold: 7,
		ScoreMin:            1,
		ScoreMax:            10,
	}
}

func (c GateConfig) normalize() GateConfig {
	d := DefaultGateConfig()
	if c.ScoreMax <= c.ScoreMin {
		c.ScoreMin, c.ScoreMax = d.ScoreMin, d.ScoreMax
	}
	if c.AcceptanceThreshold <= 0 {
		c.AcceptanceThreshold = d.AcceptanceThreshold
	}
	return c
}

// Gate is the post-worker quality check. It owns the sufficiency rule:
// sufficient == (score >= acceptance threshold), with scores clamped to
// the configured range.
type Gate struct {
	judge  Judge
	config GateConfig
	logger *zap.Logger
}

// NewGate builds a gate over the given judge.
func NewGate(judge Judge, config GateConfig, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		judge:  judge,
		config: config.normalize(),
		logger: logger.With(zap.String("component", "evaluation_gate")),
	}
}

// Config returns the normalized gate configuration.
func (g *Gate) Config() GateConfig { return g.config }

// Evaluate scores output against task and decides sufficiency.
func (g *Gate) Evaluate(ctx context.Context, task, output string) (types.EvaluationResult, error) {
	result, err := g.judge.Score(ctx, task, output)
	if err != nil {
		return types.EvaluationResult{}, fmt.Errorf("judge: %w", err)
	}

	result.Score = clamp(result.Score, g.config.ScoreMin, g.config.ScoreMax)
	result.Sufficient = result.Score >= g.config.AcceptanceThreshold

	g.logger.Debug("output evaluated",
		zap.Float64("score", result.Score),
		zap.Bool("sufficient", result.Sufficient),
	)
	return result, nil
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
