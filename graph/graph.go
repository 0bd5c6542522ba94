// Package graph provides the small directed step graph that report workflows
// are compiled into. Nodes transform a ConversationState value; routing after
// each node is a pure function of the returned state.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hupe1980/genui/core"
	"github.com/hupe1980/genui/logging"
)

// End is the terminal destination of every graph.
const End = "end"

var (
	// ErrUnknownRoute is returned when a route key has no destination.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrInvalidGraph is returned by Compile for structurally broken graphs.
	ErrInvalidGraph = errors.New("invalid graph")
)

// NodeFunc executes one step and returns the next state.
type NodeFunc func(runCtx *core.RunContext, state core.ConversationState) (core.ConversationState, error)

// RouteFunc picks a route key from the state returned by a node.
type RouteFunc func(state core.ConversationState) string

// RouteByNextStep routes on the NextStep discriminator.
func RouteByNextStep(state core.ConversationState) string { return state.NextStep }

type conditionalEdge struct {
	route   RouteFunc
	pathMap map[string]string
}

// StateGraph is a fluent builder for Graph.
//
// Example:
//
//	g, err := graph.New("report").
//	  AddNode("chat", chat).
//	  AddNode("tool-processing", tools).
//	  SetEntryPoint("chat").
//	  AddConditionalEdges("chat", graph.RouteByNextStep, map[string]string{
//	    "tool-processing": "tool-processing",
//	    graph.End:         graph.End,
//	  }).
//	  AddEdge("tool-processing", graph.End).
//	  Compile()
type StateGraph struct {
	name        string
	entry       string
	nodes       map[string]NodeFunc
	order       []string
	edges       map[string]string
	conditional map[string]conditionalEdge
	errs        []error
}

// New creates an empty graph builder.
func New(name string) *StateGraph {
	return &StateGraph{
		name:        name,
		nodes:       make(map[string]NodeFunc),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge),
	}
}

// AddNode registers a node.
func (sg *StateGraph) AddNode(name string, fn NodeFunc) *StateGraph {
	switch {
	case name == "" || name == End:
		sg.errs = append(sg.errs, fmt.Errorf("reserved or empty node name %q", name))
	case fn == nil:
		sg.errs = append(sg.errs, fmt.Errorf("node %q has no function", name))
	default:
		if _, dup := sg.nodes[name]; dup {
			sg.errs = append(sg.errs, fmt.Errorf("duplicate node %q", name))
			return sg
		}
		sg.nodes[name] = fn
		sg.order = append(sg.order, name)
	}
	return sg
}

// AddEdge adds an unconditional edge.
func (sg *StateGraph) AddEdge(from, to string) *StateGraph {
	sg.edges[from] = to
	return sg
}

// AddConditionalEdges routes from a node through route into pathMap.
func (sg *StateGraph) AddConditionalEdges(from string, route RouteFunc, pathMap map[string]string) *StateGraph {
	sg.conditional[from] = conditionalEdge{route: route, pathMap: pathMap}
	return sg
}

// SetEntryPoint sets the first node.
func (sg *StateGraph) SetEntryPoint(name string) *StateGraph {
	sg.entry = name
	return sg
}

// Compile validates the graph. Nodes without outgoing edges route to End.
func (sg *StateGraph) Compile() (*Graph, error) {
	errs := append([]error(nil), sg.errs...)

	if _, ok := sg.nodes[sg.entry]; !ok {
		errs = append(errs, fmt.Errorf("entry point %q is not a node", sg.entry))
	}

	known := func(n string) bool {
		_, ok := sg.nodes[n]
		return ok || n == End
	}

	for from, to := range sg.edges {
		if !known(from) || from == End {
			errs = append(errs, fmt.Errorf("edge from unknown node %q", from))
		}
		if !known(to) {
			errs = append(errs, fmt.Errorf("edge to unknown node %q", to))
		}
		if _, ok := sg.conditional[from]; ok {
			errs = append(errs, fmt.Errorf("node %q has both a fixed and a conditional edge", from))
		}
	}

	for from, ce := range sg.conditional {
		if !known(from) || from == End {
			errs = append(errs, fmt.Errorf("conditional edge from unknown node %q", from))
		}
		if ce.route == nil {
			errs = append(errs, fmt.Errorf("conditional edge from %q has no route function", from))
		}
		for key, to := range ce.pathMap {
			if !known(to) {
				errs = append(errs, fmt.Errorf("route %q from %q targets unknown node %q", key, from, to))
			}
		}
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidGraph, sg.name, errors.Join(errs...))
	}

	g := &Graph{
		name:        sg.name,
		entry:       sg.entry,
		nodes:       make(map[string]NodeFunc, len(sg.nodes)),
		order:       append([]string(nil), sg.order...),
		edges:       make(map[string]string, len(sg.edges)),
		conditional: make(map[string]conditionalEdge, len(sg.conditional)),
	}
	for k, v := range sg.nodes {
		g.nodes[k] = v
	}
	for k, v := range sg.edges {
		g.edges[k] = v
	}
	for k, v := range sg.conditional {
		pm := make(map[string]string, len(v.pathMap))
		for pk, pv := range v.pathMap {
			pm[pk] = pv
		}
		g.conditional[k] = conditionalEdge{route: v.route, pathMap: pm}
	}

	return g, nil
}

// Graph is an immutable compiled graph, safe for concurrent runs.
type Graph struct {
	name        string
	entry       string
	nodes       map[string]NodeFunc
	order       []string
	edges       map[string]string
	conditional map[string]conditionalEdge
}

// Name returns the graph name.
func (g *Graph) Name() string { return g.name }

// Nodes returns the node names in registration order.
func (g *Graph) Nodes() []string { return append([]string(nil), g.order...) }

// Run executes the graph from the entry point until End and returns the
// final state. Every visited node is bracketed by step_start and step_end
// events and recorded in state.Steps.
func (g *Graph) Run(runCtx *core.RunContext, state core.ConversationState) (core.ConversationState, error) {
	logger := runCtx.Logger()

	if err := runCtx.EmitEvent(core.NewRawEvent(core.KindGraphStart, g.name, map[string]any{
		"entry":    g.entry,
		"messages": len(state.Messages),
	})); err != nil {
		return state, err
	}

	current := g.entry
	for step := 0; current != End; step++ {
		if err := runCtx.Err(); err != nil {
			return state, err
		}
		if err := runCtx.Limiter.Increment(); err != nil {
			return state, err
		}

		if err := runCtx.EmitEvent(core.NewRawEvent(core.KindStepStart, current, map[string]any{
			"step":     step,
			"messages": len(state.Messages),
		})); err != nil {
			return state, err
		}

		started := time.Now()

		next, err := g.nodes[current](runCtx, state)
		if err != nil {
			logging.LogStep(logger, current, "", time.Since(started), err)
			return state, fmt.Errorf("step %q: %w", current, err)
		}

		dest, err := g.route(current, next)
		if err != nil {
			return next, err
		}

		dur := time.Since(started)
		state = next.WithStep(core.Step{
			Name:      current,
			StartedAt: started.UTC(),
			Duration:  dur,
			NextStep:  dest,
		})

		logging.LogStep(logger, current, dest, dur, nil)

		if err := runCtx.EmitEvent(core.NewRawEvent(core.KindStepEnd, current, map[string]any{
			"step":      step,
			"next_step": dest,
			"messages":  len(state.Messages),
			"duration":  dur.Seconds(),
		})); err != nil {
			return state, err
		}

		current = dest
	}

	if err := runCtx.EmitEvent(core.NewRawEvent(core.KindGraphEnd, g.name, map[string]any{
		"steps":    len(state.Steps),
		"messages": len(state.Messages),
	})); err != nil {
		return state, err
	}

	return state, nil
}

func (g *Graph) route(from string, state core.ConversationState) (string, error) {
	if ce, ok := g.conditional[from]; ok {
		key := ce.route(state)
		dest, ok := ce.pathMap[key]
		if !ok {
			return "", fmt.Errorf("%w %q after step %q", ErrUnknownRoute, key, from)
		}
		return dest, nil
	}
	if to, ok := g.edges[from]; ok {
		return to, nil
	}
	return End, nil
}
