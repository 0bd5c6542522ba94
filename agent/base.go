package agent

import (
	"fmt"

	"github.com/hupe1980/genui/core"
)

// BaseAgent bundles identity helpers shared by concrete agents. Embed it and
// supply a Run method to satisfy the core.Agent interface.
type BaseAgent struct {
	name        string
	description string
	kind        string
}

// NewBaseAgent constructs a BaseAgent with generated description (customizable via SetDescription).
func NewBaseAgent(name, kind string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
		kind:        kind,
	}
}

// Name returns the external identifier for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// Info returns the identity carried in run contexts.
func (b *BaseAgent) Info() core.AgentInfo { return core.AgentInfo{Name: b.name, Type: b.kind} }
