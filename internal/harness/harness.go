// Package harness executes scenario files against a real engine and
// captures deterministic traces for assertions and golden comparison.
//
// Unlike ad-hoc tests, harness runs are fully scripted: a fresh in-memory
// world, reaction IDs fixed to the scenario's reaction names, and one
// scheduler pass per scenario tick with scripted mutations applied between
// passes. The resulting TraceSnapshot serializes canonically, so two runs
// of the same scenario produce byte-identical traces.
package harness

import (
	"context"
	"fmt"

	"github.com/roach88/reverb/internal/engine"
	"github.com/roach88/reverb/internal/journal"
	"github.com/roach88/reverb/internal/scenario"
	"github.com/roach88/reverb/internal/world"
)

// WriteEvent is one component write in a trace, with the entity resolved
// back to its scenario name where possible.
type WriteEvent struct {
	Entity string
	Type   string
	Value  any
}

// OutcomeEvent is one record outcome (execution or failure) in a pass.
type OutcomeEvent struct {
	Reaction    string
	Kind        string
	Outcome     string // "executed" | "failed"
	FailureCode string
	Writes      []WriteEvent
}

// PassTrace is the trace of one scheduler pass.
type PassTrace struct {
	Pass     int64
	Outcomes []OutcomeEvent
	Fresh    int
}

// Result is the outcome of a scenario run: the full trace plus the final
// component state of every scenario entity.
type Result struct {
	ScenarioName string
	Passes       []PassTrace

	// FinalState maps entity name -> component type -> value for entities
	// still alive when the scenario ends.
	FinalState map[string]map[string]any
}

// Harness drives one scenario execution.
type Harness struct {
	world     *world.World
	scheduler *engine.Scheduler
	entities  map[string]world.Entity
	names     map[world.Entity]string
	journal   *journal.Journal
}

// Option configures a harness run.
type Option func(*Harness)

// WithJournal records every pass into j as the scenario runs.
func WithJournal(j *journal.Journal) Option {
	return func(h *Harness) { h.journal = j }
}

// Run executes a scenario and returns its trace.
//
// Each run gets a fresh world and scheduler; reaction IDs are fixed to the
// scenario's reaction names so traces are reproducible.
func Run(ctx context.Context, sc *scenario.Scenario, opts ...Option) (*Result, error) {
	ids := make([]engine.ReactionID, len(sc.Reactions))
	for i, r := range sc.Reactions {
		ids[i] = engine.ReactionID(r.Name)
	}

	h := &Harness{
		world:     world.New(),
		scheduler: engine.NewScheduler(engine.WithIDGenerator(engine.NewFixedGenerator(ids...))),
		entities:  make(map[string]world.Entity),
		names:     make(map[world.Entity]string),
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := h.setup(sc); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	result := &Result{ScenarioName: sc.Name}
	for tick := 1; tick <= sc.Ticks; tick++ {
		if err := h.applyScript(sc, tick); err != nil {
			return nil, fmt.Errorf("scenario %s: tick %d: %w", sc.Name, tick, err)
		}
		pass, err := h.scheduler.RunPass(ctx, h.world)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: tick %d: %w", sc.Name, tick, err)
		}
		if h.journal != nil {
			if err := h.journal.Record(ctx, pass); err != nil {
				return nil, fmt.Errorf("scenario %s: tick %d: %w", sc.Name, tick, err)
			}
		}
		result.Passes = append(result.Passes, h.trace(pass))
	}

	result.FinalState = h.finalState(sc)
	return result, nil
}

// setup spawns the scenario's entities and reactions.
func (h *Harness) setup(sc *scenario.Scenario) error {
	for _, def := range sc.Entities {
		e := h.world.Spawn()
		h.entities[def.Name] = e
		h.names[e] = def.Name
		for t, v := range def.Components {
			h.world.Set(e, world.ComponentType(t), v)
		}
	}

	for _, def := range sc.Reactions {
		r, err := LookupPreset(def.Preset)
		if err != nil {
			return fmt.Errorf("reaction %s: %w", def.Name, err)
		}
		targets := make([]world.Entity, len(def.Targets))
		for i, name := range def.Targets {
			targets[i] = h.entities[name]
		}
		if _, err := h.scheduler.Spawn(r, targets...); err != nil {
			return fmt.Errorf("reaction %s: %w", def.Name, err)
		}
	}
	return nil
}

// applyScript applies the scripted mutations scheduled before pass `tick`.
func (h *Harness) applyScript(sc *scenario.Scenario, tick int) error {
	for _, step := range sc.Script {
		if step.Tick != tick {
			continue
		}
		for _, op := range step.Ops {
			if err := h.applyOp(op); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Harness) applyOp(op scenario.Op) error {
	switch op.Op {
	case "set":
		h.world.Set(h.entities[op.Entity], world.ComponentType(op.Type), op.Value)
	case "remove":
		h.world.Remove(h.entities[op.Entity], world.ComponentType(op.Type))
	case "despawn-entity":
		h.world.Despawn(h.entities[op.Entity])
	case "despawn-reaction":
		if err := h.scheduler.Despawn(engine.ReactionID(op.Reaction)); err != nil {
			return fmt.Errorf("op despawn-reaction: %w", err)
		}
	case "add-target":
		if err := h.scheduler.AddTarget(engine.ReactionID(op.Reaction), h.entities[op.Entity]); err != nil {
			return fmt.Errorf("op add-target: %w", err)
		}
	default:
		return fmt.Errorf("unknown op: %s", op.Op)
	}
	return nil
}

// trace converts a PassResult into a PassTrace with scenario names.
func (h *Harness) trace(pass engine.PassResult) PassTrace {
	pt := PassTrace{Pass: pass.Pass, Fresh: pass.Fresh}
	for _, exec := range pass.Executed {
		event := OutcomeEvent{
			Reaction: string(exec.Reaction),
			Kind:     exec.Kind.String(),
			Outcome:  "executed",
		}
		for _, w := range exec.Writes {
			event.Writes = append(event.Writes, WriteEvent{
				Entity: h.entityName(w.Entity),
				Type:   string(w.Type),
				Value:  w.Value,
			})
		}
		pt.Outcomes = append(pt.Outcomes, event)
	}
	for _, f := range pass.Failures {
		pt.Outcomes = append(pt.Outcomes, OutcomeEvent{
			Reaction:    string(f.Reaction),
			Kind:        "",
			Outcome:     "failed",
			FailureCode: string(f.Code),
		})
	}
	return pt
}

func (h *Harness) entityName(e world.Entity) string {
	if name, ok := h.names[e]; ok {
		return name
	}
	return fmt.Sprintf("entity-%d", e)
}

// finalState reads back every scenario entity's components of the types the
// scenario ever touched, for state assertions.
func (h *Harness) finalState(sc *scenario.Scenario) map[string]map[string]any {
	types := make(map[world.ComponentType]bool)
	for _, def := range sc.Entities {
		for t := range def.Components {
			types[world.ComponentType(t)] = true
		}
	}
	for _, step := range sc.Script {
		for _, op := range step.Ops {
			if op.Type != "" {
				types[world.ComponentType(op.Type)] = true
			}
		}
	}
	// Preset outputs.
	for t := range presetOutputTypes() {
		types[t] = true
	}

	state := make(map[string]map[string]any)
	for name, e := range h.entities {
		if !h.world.Alive(e) {
			continue
		}
		components := make(map[string]any)
		for t := range types {
			if v, ok := h.world.Get(e, t); ok {
				components[string(t)] = v
			}
		}
		state[name] = components
	}
	return state
}
