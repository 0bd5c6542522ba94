package agent

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/graph"
	"github.com/hupe1980/genui/logging"
	"github.com/hupe1980/genui/model"
	"github.com/hupe1980/genui/tool"
)

// Step names of the report workflow.
const (
	StepChat             = "chat"
	StepToolProcessing   = "tool-processing"
	StepReportGeneration = "report-generation"
)

// ErrNoResponse is returned when a model finishes without a final response.
var ErrNoResponse = errors.New("model returned no final response")

// ModelResolver resolves the model for a provider/model name pair.
type ModelResolver interface {
	Resolve(provider, modelName string) (model.Model, error)
}

// ReportAgentOptions configures a ReportAgent instance.
type ReportAgentOptions struct {
	Description       string
	ChatInstruction   Instruction
	ReportInstruction Instruction
	Tools             []tool.Tool
	// EnableStreaming requests token streaming from the model.
	EnableStreaming bool
}

// ReportAgent runs the chat → tool-processing → report-generation workflow.
//
// The chat step offers the registered tools and asks for at most one call
// per turn. Tool results are appended as tool messages and a second model
// turn authors the report. Routing after every step follows the NextStep
// discriminator of the returned state.
//
// A ReportAgent is immutable after construction and serves concurrent runs.
type ReportAgent struct {
	BaseAgent
	models            ModelResolver
	chatInstruction   Instruction
	reportInstruction Instruction
	tools             []tool.Tool
	enableStreaming   bool
	graph             *graph.Graph
}

// NewReportAgent builds and compiles the workflow graph.
func NewReportAgent(name string, models ModelResolver, optFns ...func(o *ReportAgentOptions)) (*ReportAgent, error) {
	opts := ReportAgentOptions{
		ChatInstruction:   NewInstructionFromText(fmt.Sprintf("You are %s, a stock market analyst.", name)),
		ReportInstruction: NewInstructionFromText("Write a report from the data above."),
		EnableStreaming:   true,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if models == nil {
		return nil, fmt.Errorf("agent %s: model resolver is required", name)
	}

	a := &ReportAgent{
		BaseAgent:         NewBaseAgent(name, "report"),
		models:            models,
		chatInstruction:   opts.ChatInstruction,
		reportInstruction: opts.ReportInstruction,
		tools:             append([]tool.Tool(nil), opts.Tools...),
		enableStreaming:   opts.EnableStreaming,
	}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	g, err := graph.New(name).
		AddNode(StepChat, a.chat).
		AddNode(StepToolProcessing, a.processTools).
		AddNode(StepReportGeneration, a.generateReport).
		SetEntryPoint(StepChat).
		AddConditionalEdges(StepChat, graph.RouteByNextStep, map[string]string{
			StepToolProcessing: StepToolProcessing,
			graph.End:          graph.End,
		}).
		AddConditionalEdges(StepToolProcessing, graph.RouteByNextStep, map[string]string{
			StepReportGeneration: StepReportGeneration,
			graph.End:            graph.End,
		}).
		AddConditionalEdges(StepReportGeneration, graph.RouteByNextStep, map[string]string{
			StepToolProcessing: StepToolProcessing,
			graph.End:          graph.End,
		}).
		Compile()
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}
	a.graph = g

	return a, nil
}

// Run executes the workflow graph.
func (a *ReportAgent) Run(runCtx *core.RunContext, state core.ConversationState) (core.ConversationState, error) {
	return a.graph.Run(runCtx, state)
}

// Tools returns the tools offered in the chat step.
func (a *ReportAgent) Tools() []tool.Tool { return append([]tool.Tool(nil), a.tools...) }

// Graph returns the compiled workflow.
func (a *ReportAgent) Graph() *graph.Graph { return a.graph }

func (a *ReportAgent) chat(runCtx *core.RunContext, state core.ConversationState) (core.ConversationState, error) {
	msg, err := a.generate(runCtx, state, a.chatInstruction, tool.Definitions(a.tools))
	if err != nil {
		return state, err
	}

	next := state.WithMessages(msg)
	if msg.HasFunctionCalls() {
		return next.WithNextStep(StepToolProcessing), nil
	}
	return next.WithNextStep(graph.End), nil
}

func (a *ReportAgent) processTools(runCtx *core.RunContext, state core.ConversationState) (core.ConversationState, error) {
	last, ok := state.LastMessage()
	if !ok || !last.HasFunctionCalls() {
		return state.WithNextStep(graph.End), nil
	}

	calls := last.FunctionCalls()
	results := make([]core.Message, 0, len(calls))

	for _, fc := range calls {
		out, err := a.callTool(runCtx, fc)
		if err != nil {
			return state, err
		}
		results = append(results, core.NewToolResultMessage(core.FunctionResponse{
			ID:       fc.ID,
			Name:     fc.Name,
			Response: out,
		}))
	}

	return state.WithMessages(results...).WithNextStep(StepReportGeneration), nil
}

func (a *ReportAgent) callTool(runCtx *core.RunContext, fc core.FunctionCall) (any, error) {
	t, err := tool.Find(a.tools, fc.Name)
	if err != nil {
		return nil, err
	}

	args, err := fc.Args()
	if err != nil {
		return nil, fmt.Errorf("decode arguments for %s: %w", fc.Name, err)
	}

	if err := runCtx.EmitEvent(core.NewRawEvent(core.KindToolStart, fc.Name, map[string]any{
		"name":    fc.Name,
		"input":   args,
		"call_id": fc.ID,
	})); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := t.Call(core.NewToolContext(runCtx, fc.ID), args)
	dur := time.Since(start)

	logging.LogToolCall(runCtx.Logger(), fc.Name, dur, err)

	if err != nil {
		return nil, err
	}

	if err := runCtx.EmitEvent(core.NewRawEvent(core.KindToolEnd, fc.Name, map[string]any{
		"name":     fc.Name,
		"output":   out,
		"duration": dur.Seconds(),
		"call_id":  fc.ID,
	})); err != nil {
		return nil, err
	}

	return out, nil
}

func (a *ReportAgent) generateReport(runCtx *core.RunContext, state core.ConversationState) (core.ConversationState, error) {
	msg, err := a.generate(runCtx, state, a.reportInstruction, nil)
	if err != nil {
		return state, err
	}
	return state.WithMessages(msg).WithNextStep(StepToolProcessing), nil
}

// generate performs one completion request and streams partial chunks as
// model_token events. A model that does not stream still yields one token
// event carrying its full text.
func (a *ReportAgent) generate(
	runCtx *core.RunContext,
	state core.ConversationState,
	instruction Instruction,
	tools []model.ToolDefinition,
) (core.Message, error) {
	llm, err := a.models.Resolve(state.Provider, state.Model)
	if err != nil {
		return core.Message{}, err
	}

	instructions, err := instruction.Resolve(runCtx)
	if err != nil {
		return core.Message{}, err
	}

	info := llm.Info()
	req := model.Request{
		Instructions:   instructions,
		Messages:       state.Messages,
		Tools:          tools,
		Stream:         a.enableStreaming,
		SingleToolCall: len(tools) > 0,
	}

	if err := runCtx.EmitEvent(core.NewRawEvent(core.KindModelStart, info.Name, map[string]any{
		"provider": info.Provider,
		"model":    info.Name,
		"messages": len(req.Messages),
		"tools":    len(req.Tools),
	})); err != nil {
		return core.Message{}, err
	}

	start := time.Now()
	respCh, errCh := llm.Generate(runCtx.Context, req)

	var (
		final    *model.Response
		streamed bool
	)

	for resp := range respCh {
		if resp.Partial {
			if resp.Text() == "" {
				continue
			}
			streamed = true
			if err := runCtx.EmitEvent(core.NewRawEvent(core.KindModelToken, info.Name, map[string]any{"chunk": resp})); err != nil {
				return core.Message{}, err
			}
			continue
		}
		r := resp
		final = &r
	}

	if err := <-errCh; err != nil {
		logging.LogModelCall(runCtx.Logger(), info.Provider, info.Name, time.Since(start), err)
		return core.Message{}, fmt.Errorf("model %s: %w", info.Name, err)
	}
	if final == nil {
		return core.Message{}, fmt.Errorf("model %s: %w", info.Name, ErrNoResponse)
	}

	if !streamed && final.Text() != "" {
		if err := runCtx.EmitEvent(core.NewRawEvent(core.KindModelToken, info.Name, map[string]any{"chunk": *final})); err != nil {
			return core.Message{}, err
		}
	}

	dur := time.Since(start)
	logging.LogModelCall(runCtx.Logger(), info.Provider, info.Name, dur, nil)

	payload := map[string]any{
		"finish_reason": final.FinishReason,
		"duration":      dur.Seconds(),
		"tool_calls":    len(final.Message.FunctionCalls()),
	}
	if final.Usage != nil {
		payload["usage"] = *final.Usage
	}
	if err := runCtx.EmitEvent(core.NewRawEvent(core.KindModelEnd, info.Name, payload)); err != nil {
		return core.Message{}, err
	}

	msg := final.Message
	msg.Role = core.RoleAssistant

	return msg, nil
}
