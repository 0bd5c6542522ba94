package engine

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAgentNotFound matches every *AgentNotFoundError via errors.Is.
var ErrAgentNotFound = errors.New("agent not found")

// AgentNotFoundError reports an unknown agent together with the registered ones.
type AgentNotFoundError struct {
	Name      string
	Available []string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("agent %q not found (available: %s)", e.Name, strings.Join(e.Available, ", "))
}

// Is reports whether target is ErrAgentNotFound.
func (e *AgentNotFoundError) Is(target error) bool { return target == ErrAgentNotFound }
