package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/swarmflow/types"
)

// StaticJudge scores outputs from a lookup table keyed by the exact
// output string, with a default for everything else. It satisfies
// evaluation.Judge.
type StaticJudge struct {
	mu       sync.Mutex
	scores   map[string]types.EvaluationResult
	fallback types.EvaluationResult
	err      error
	calls    int
}

// NewStaticJudge returns a judge that grades every output with
// defaultScore.
func NewStaticJudge(defaultScore float64) *StaticJudge {
	return &StaticJudge{
		scores:   make(map[string]types.EvaluationResult),
		fallback: types.EvaluationResult{Score: defaultScore},
	}
}

// WithScore pins the grade for one output string.
func (j *StaticJudge) WithScore(output string, score float64, critique string) *StaticJudge {
	j.scores[output] = types.EvaluationResult{Score: score, Critique: critique}
	return j
}

// WithError makes every Score call fail with err.
func (j *StaticJudge) WithError(err error) *StaticJudge {
	j.err = err
	return j
}

// Score implements evaluation.Judge.
func (j *StaticJudge) Score(_ context.Context, _, output string) (types.EvaluationResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls++
	if j.err != nil {
		return types.EvaluationResult{}, j.err
	}
	if result, ok := j.scores[output]; ok {
		return result, nil
	}
	return j.fallback, nil
}

// Calls returns how many outputs were scored.
func (j *StaticJudge) Calls() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.calls
}
