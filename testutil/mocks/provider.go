// Package mocks provides scripted test doubles for the delegation
// loop: a decision provider, a worker executor, and a judge. All of
// them support builder-style setup and record their calls.
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/swarmflow/delegation"
	"github.com/BaSui01/swarmflow/types"
)

// ScriptedProvider replays a queue of route proposals and records the
// views it was shown. An exhausted script proposes FINISH so a test
// that under-scripts terminates instead of hanging.
type ScriptedProvider struct {
	mu        sync.Mutex
	proposals []types.RouteProposal
	errs      []error
	views     []delegation.RouteView
}

// NewScriptedProvider returns an empty provider script.
func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{}
}

// WithHop queues a proposal for the named candidate.
func (p *ScriptedProvider) WithHop(candidate string) *ScriptedProvider {
	p.proposals = append(p.proposals, types.RouteProposal{Candidate: candidate})
	p.errs = append(p.errs, nil)
	return p
}

// WithFinish queues a FINISH proposal.
func (p *ScriptedProvider) WithFinish(justification string) *ScriptedProvider {
	p.proposals = append(p.proposals, types.RouteProposal{Finish: true, Justification: justification})
	p.errs = append(p.errs, nil)
	return p
}

// WithError queues a provider failure.
func (p *ScriptedProvider) WithError(err error) *ScriptedProvider {
	p.proposals = append(p.proposals, types.RouteProposal{})
	p.errs = append(p.errs, err)
	return p
}

// Route implements delegation.DecisionProvider.
func (p *ScriptedProvider) Route(_ context.Context, view delegation.RouteView) (types.RouteProposal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, view)

	if len(p.proposals) == 0 {
		return types.RouteProposal{Finish: true, Justification: "script exhausted"}, nil
	}
	proposal, err := p.proposals[0], p.errs[0]
	p.proposals, p.errs = p.proposals[1:], p.errs[1:]
	return proposal, err
}

// Views returns the route views observed so far.
func (p *ScriptedProvider) Views() []delegation.RouteView {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]delegation.RouteView, len(p.views))
	copy(out, p.views)
	return out
}

// Calls returns how many routing decisions were requested.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.views)
}
