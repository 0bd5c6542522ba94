package agent

import (
	"fmt"
	"time"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(*core.RunContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.RunContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(rc *core.RunContext) (string, error) { return f(rc) }

// Instruction represents either a static instruction string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.RunContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// NewInstructionFromTemplate creates an Instruction rendered per run with
// text/template. Templates see .date (YYYY-MM-DD), .agent, .run_id and
// .thread_id.
func NewInstructionFromTemplate(text string, clock func() time.Time) Instruction {
	if clock == nil {
		clock = time.Now
	}
	return NewInstructionFromFunc(func(rc *core.RunContext) (string, error) {
		out, err := util.RenderTemplate(text, map[string]any{
			"date":      clock().Format(time.DateOnly),
			"agent":     rc.AgentName(),
			"run_id":    rc.RunID,
			"thread_id": rc.ThreadID,
		})
		if err != nil {
			return "", fmt.Errorf("render instruction: %w", err)
		}
		return out, nil
	})
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(rc *core.RunContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(rc)
	}
	return i.text, nil
}
