package stream

import "github.com/hupe1980/genui/core"

// DefaultDebugKinds are forwarded in addition to the standard kinds when
// debug mode is on.
var DefaultDebugKinds = []core.EventKind{
	core.KindModelStart,
	core.KindModelEnd,
	core.KindGraphStart,
	core.KindGraphEnd,
}

var forwardedKinds = map[core.EventKind]struct{}{
	core.KindModelToken: {},
	core.KindToolStart:  {},
	core.KindToolEnd:    {},
	core.KindStepStart:  {},
	core.KindStepEnd:    {},
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	Debug      bool
	DebugKinds []core.EventKind
}

// Classifier decides which raw events reach the client. It is immutable and
// safe for concurrent use.
type Classifier struct {
	debug bool
	extra map[core.EventKind]struct{}
}

// NewClassifier creates a Classifier.
func NewClassifier(optFns ...func(o *ClassifierOptions)) *Classifier {
	opts := ClassifierOptions{
		DebugKinds: DefaultDebugKinds,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	extra := make(map[core.EventKind]struct{}, len(opts.DebugKinds))
	for _, k := range opts.DebugKinds {
		extra[k] = struct{}{}
	}

	return &Classifier{debug: opts.Debug, extra: extra}
}

// Debug reports whether debug mode is on.
func (c *Classifier) Debug() bool { return c.debug }

// ShouldForward reports whether ev is forwarded.
func (c *Classifier) ShouldForward(ev core.RawEvent) bool {
	if _, ok := forwardedKinds[ev.Kind]; ok {
		return true
	}
	if !c.debug {
		return false
	}
	_, ok := c.extra[ev.Kind]
	return ok
}
