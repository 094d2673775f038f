package swarmflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BaSui01/swarmflow"
	"github.com/BaSui01/swarmflow/delegation"
	"github.com/BaSui01/swarmflow/evaluation"
	"github.com/BaSui01/swarmflow/types"
)

const sampleTree = `
tenant: acme
workers:
  - name: coordinator
    role: supervisor
    children: [greeter]
    summary: routes requests
  - name: greeter
    role: leaf
    parent: coordinator
    summary: greets people
    operations:
      - name: greet
        args: [name]
`

func writeTree(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swarm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTree), 0o600))
	return path
}

type routeToGreeter struct{}

func (routeToGreeter) Route(_ context.Context, view delegation.RouteView) (types.RouteProposal, error) {
	if view.AcceptedPayload != "" {
		return types.RouteProposal{Finish: true}, nil
	}
	return types.RouteProposal{Candidate: "greeter"}, nil
}

type greetExecutor struct{}

func (greetExecutor) Execute(_ context.Context, worker string, task types.TaskContext) (types.Outcome, error) {
	return types.Success("hello from " + worker), nil
}

func passingJudge() evaluation.Judge {
	return evaluation.JudgeFunc(func(_ context.Context, _, _ string) (types.EvaluationResult, error) {
		return types.EvaluationResult{Score: 9, Critique: "fine"}, nil
	})
}

func TestNewRunsRequest(t *testing.T) {
	orch, err := swarmflow.New(writeTree(t), routeToGreeter{}, greetExecutor{}, passingJudge())
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), "say hi")
	require.NoError(t, err)
	require.True(t, result.Succeeded())
	require.Equal(t, "hello from greeter", result.Payload)
	require.Equal(t, "acme", result.Tenant)
}

func TestNewRejectsMissingTree(t *testing.T) {
	_, err := swarmflow.New(filepath.Join(t.TempDir(), "absent.yaml"), routeToGreeter{}, greetExecutor{}, passingJudge())
	require.Error(t, err)
}

func TestNewHonorsGateConfig(t *testing.T) {
	orch, err := swarmflow.New(writeTree(t), routeToGreeter{}, greetExecutor{}, passingJudge(),
		swarmflow.WithGateConfig(evaluation.GateConfig{AcceptanceThreshold: 9.5, ScoreMin: 1, ScoreMax: 10}),
	)
	require.NoError(t, err)

	result, err := orch.Run(context.Background(), "say hi")
	require.NoError(t, err)
	require.False(t, result.Succeeded())
}
