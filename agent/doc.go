// Package agent contains the report agents served by genui and their
// supporting utilities. The package focuses on three concerns:
//
//  1. Identity plumbing (BaseAgent) and instructions (static, dynamic or templated)
//  2. The report workflow (ReportAgent) compiled into a graph.Graph:
//     chat → tool-processing → report-generation
//  3. The embedded agent catalog (prompts.yaml) describing the built-in agents
//
// Execution Model:
//   - An agent's Run receives a *core.RunContext and the initial ConversationState
//   - Every step returns a new state; routing follows its NextStep discriminator
//   - Model turns stream tokens as model_token raw events; tool calls are
//     bracketed by tool_start / tool_end
//
// Models are resolved per run through a ModelResolver so one agent can serve
// any configured provider.
package agent
