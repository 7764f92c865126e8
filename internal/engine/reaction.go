package engine

import (
	"github.com/roach88/reverb/internal/world"
)

// Kind tags a reaction's execution semantics. The set of combinators is
// closed and finite, so kinds are a tagged variant rather than open-ended
// dynamic dispatch.
type Kind int

const (
	// KindPlain runs purely for effect; no write-back.
	KindPlain Kind = iota + 1
	// KindDerive produces one value per target, written back as a component
	// on that target.
	KindDerive
	// KindSwitch evaluates a tracked predicate and writes the output of
	// exactly one of two untracked producers.
	KindSwitch
)

// String returns the kind's journal/trace name.
func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindDerive:
		return "derive"
	case KindSwitch:
		return "switch"
	default:
		return "unknown"
	}
}

// PhasePostUpdate is the default phase label for spawned reactions.
// Hosts that split their tick into phases spawn reactions with WithPhase
// and sweep each phase separately via RunPhase.
const PhasePostUpdate = "post_update"

// PlainFunc is a side-effecting reaction body.
type PlainFunc func(Scope) error

// DeriveFunc computes one output value from tracked reads.
type DeriveFunc func(Scope) (world.Value, error)

// PredicateFunc is the tracked predicate of a switch reaction.
type PredicateFunc func(Scope) (bool, error)

// ProducerFunc is an untracked, zero-argument producer. Its invocation is
// controlled solely by the predicate's result and the record's staleness,
// never by state it reads itself.
type ProducerFunc func() world.Value

// Reaction describes one unit of re-executable logic before it is spawned
// into a scheduler. Reactions are immutable once spawned; targets live on
// the scheduler's record, not here.
type Reaction struct {
	kind  Kind
	phase string

	plain PlainFunc

	derive DeriveFunc
	output world.ComponentType

	predicate PredicateFunc
	trueType  world.ComponentType
	onTrue    ProducerFunc
	falseType world.ComponentType
	onFalse   ProducerFunc
}

// New builds a plain reaction: body runs for effect whenever its tracked
// reads go stale.
func New(body PlainFunc) *Reaction {
	return &Reaction{kind: KindPlain, phase: PhasePostUpdate, plain: body}
}

// Derive builds a derived-state reaction. On each execution the body runs
// once per target entity and its returned value is written as component
// `output` on that target, replacing any prior value. The write advances
// the store's version clock, which downstream reactions observe as
// staleness on their next check.
func Derive(output world.ComponentType, body DeriveFunc) *Reaction {
	return &Reaction{kind: KindDerive, phase: PhasePostUpdate, derive: body, output: output}
}

// Switch builds a conditional reaction. On each execution the tracked
// predicate runs inside the record's own capture scope (so predicate reads
// drive future staleness), then exactly one producer runs: onTrue when the
// predicate holds, onFalse otherwise. The chosen producer's value is
// written as its component type on the target and the opposite branch's
// component type is removed.
func Switch(
	predicate PredicateFunc,
	trueType world.ComponentType, onTrue ProducerFunc,
	falseType world.ComponentType, onFalse ProducerFunc,
) *Reaction {
	return &Reaction{
		kind:      KindSwitch,
		phase:     PhasePostUpdate,
		predicate: predicate,
		trueType:  trueType,
		onTrue:    onTrue,
		falseType: falseType,
		onFalse:   onFalse,
	}
}

// WithPhase assigns the reaction to a named phase and returns it for
// chaining. The default is PhasePostUpdate.
func (r *Reaction) WithPhase(phase string) *Reaction {
	r.phase = phase
	return r
}

// Kind returns the reaction's kind tag.
func (r *Reaction) Kind() Kind {
	return r.kind
}

// Phase returns the reaction's phase label.
func (r *Reaction) Phase() string {
	return r.phase
}

// Output returns the component type a derive reaction writes, or the empty
// string for other kinds.
func (r *Reaction) Output() world.ComponentType {
	return r.output
}

// BranchTypes returns the component types a switch reaction writes on its
// true and false branches, or empty strings for other kinds.
func (r *Reaction) BranchTypes() (world.ComponentType, world.ComponentType) {
	return r.trueType, r.falseType
}
