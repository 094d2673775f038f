package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// CompletionProvider is the slice of a chat backend the judge needs.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMJudgeConfig configures the model-backed judge.
type LLMJudgeConfig struct {
	Model          string        `yaml:"model" json:"model"`
	PromptTemplate string        `yaml:"prompt_template" json:"prompt_template"`
	ScoreMin       float64       `yaml:"score_min" json:"score_min"`
	ScoreMax       float64       `yaml:"score_max" json:"score_max"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultJudgePromptTemplate is the stock scoring prompt.
const DefaultJudgePromptTemplate = `You are a strict reviewer grading the output a worker produced for a task.

## Task
{{.Task}}

## Worker Output
{{.Output}}

## Instructions
1. Score the output from {{.ScoreMin}} to {{.ScoreMax}}, where {{.ScoreMax}} means the task is fully and correctly solved.
2. If the score is low, write a short actionable critique the worker can use to retry.

## Output Format
Respond with a JSON object:
{
  "score": <number>,
  "critique": "<string>"
}

Ensure the score is within [{{.ScoreMin}}, {{.ScoreMax}}].`

// DefaultLLMJudgeConfig returns the stock judge configuration.
func DefaultLLMJudgeConfig() LLMJudgeConfig {
	return LLMJudgeConfig{
		Model:          "gpt-4",
		PromptTemplate: DefaultJudgePromptTemplate,
		ScoreMin:       1,
		ScoreMax:       10,
		Timeout:        60 * time.Second,
	}
}

// LLMJudge scores worker output by asking a language model for a
// numeric grade plus critique.
type LLMJudge struct {
	provider CompletionProvider
	config   LLMJudgeConfig
	logger   *zap.Logger
}

// NewLLMJudge builds a judge over the given completion provider.
func NewLLMJudge(provider CompletionProvider, config LLMJudgeConfig, logger *zap.Logger) *LLMJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PromptTemplate == "" {
		config.PromptTemplate = DefaultJudgePromptTemplate
	}
	if config.ScoreMax <= config.ScoreMin {
		config.ScoreMin, config.ScoreMax = 1, 10
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &LLMJudge{
		provider: provider,
		config:   config,
		logger:   logger.With(zap.String("component", "llm_judge")),
	}
}

// Config returns the judge configuration.
func (j *LLMJudge) Config() LLMJudgeConfig { return j.config }

// Score implements Judge.
func (j *LLMJudge) Score(ctx context.Context, task, output string) (types.EvaluationResult, error) {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	prompt := j.buildPrompt(task, output)
	content, err := j.provider.Complete(ctx, prompt)
	if err != nil {
		return types.EvaluationResult{}, fmt.Errorf("completion failed: %w", err)
	}

	result, err := j.parseResponse(content)
	if err != nil {
		return types.EvaluationResult{}, fmt.Errorf("parse judge response: %w", err)
	}

	result.Score = clamp(result.Score, j.config.ScoreMin, j.config.ScoreMax)

	j.logger.Debug("judge scored output",
		zap.Float64("score", result.Score),
		zap.String("model", j.config.Model))
	return result, nil
}

func (j *LLMJudge) buildPrompt(task, output string) string {
	prompt := j.config.PromptTemplate
	prompt = strings.ReplaceAll(prompt, "{{.Task}}", task)
	prompt = strings.ReplaceAll(prompt, "{{.Output}}", output)
	prompt = strings.ReplaceAll(prompt, "{{.ScoreMin}}", fmt.Sprintf("%.0f", j.config.ScoreMin))
	prompt = strings.ReplaceAll(prompt, "{{.ScoreMax}}", fmt.Sprintf("%.0f", j.config.ScoreMax))
	return prompt
}

func (j *LLMJudge) parseResponse(content string) (types.EvaluationResult, error) {
	jsonStr := extractJSON(content)
	if jsonStr == "" {
		return types.EvaluationResult{}, fmt.Errorf("no JSON found in response")
	}

	var raw struct {
		Score    float64 `json:"score"`
		Critique string  `json:"critique"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return types.EvaluationResult{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return types.EvaluationResult{
		Score:    raw.Score,
		Critique: raw.Critique,
	}, nil
}

func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}
