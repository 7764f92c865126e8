package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/reverb/internal/track"
	"github.com/roach88/reverb/internal/world"
)

// ErrUnknownReaction reports an operation against a reaction ID not present
// in the scheduler's registry (never spawned, or already despawned).
var ErrUnknownReaction = fmt.Errorf("engine: unknown reaction id")

// record is the persistent state for one spawned reaction: its targets, its
// body, its last-observed dependency snapshot, and the switch branch memory.
//
// INVARIANTS:
//   - snapshot is either nil (never run) or exactly the snapshot captured
//     during the most recent successful execution - never partially updated.
//   - targets has set semantics over an ordered sequence: duplicates are
//     rejected on add, iteration order is insertion order.
type record struct {
	id       ReactionID
	reaction *Reaction
	targets  []world.Entity
	tracker  *track.Tracker
	snapshot track.Snapshot

	// branches remembers the previous predicate result of a switch record
	// per target, so branch flips can be reported. A target absent from the
	// map has never been evaluated.
	branches map[world.Entity]bool

	removed bool
}

// ComponentWrite describes one store write performed by a derive or switch
// execution, reported in the PassResult for tracing.
type ComponentWrite struct {
	Entity world.Entity
	Type   world.ComponentType
	Value  world.Value
}

// Execution describes one completed record execution within a pass.
type Execution struct {
	Reaction ReactionID
	Kind     Kind
	Writes   []ComponentWrite

	// BranchFlipped is set on switch executions where any target's
	// predicate result differs from that target's previous execution (or
	// was evaluated for the first time).
	BranchFlipped bool
}

// Failure describes one per-record failure within a pass. Failures never
// abort the pass; the scheduler always attempts every live record.
type Failure struct {
	Reaction ReactionID
	Code     FailureCode
	Err      error
}

// PassResult is the outcome of one scheduler sweep: which records ran,
// which failed and how, and how many were skipped as fresh.
type PassResult struct {
	Pass     int64
	Phase    string
	Executed []Execution
	Failures []Failure
	Fresh    int
}

// Scheduler owns the reaction registry and performs the per-tick sweep:
// enumerate records, evaluate staleness against their stored snapshots and
// the store's version stamps, re-invoke exactly the stale ones, and commit
// each new dependency snapshot.
//
// Records are swept in spawn order. Within one pass there is no intra-pass
// dependency ordering: a write by record A is observed by record B on the
// NEXT pass; propagation across reactions is eventually consistent over
// successive ticks, not instantaneous within one.
//
// Thread-safety: Spawn, AddTarget, Despawn and RunPass are safe to call
// from any goroutine. At most one pass runs at a time.
type Scheduler struct {
	mu      sync.Mutex
	passMu  sync.Mutex
	idGen   IDGenerator
	records map[ReactionID]*record
	order   []*record
	passSeq int64
	workers int
	metrics *Metrics
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithIDGenerator substitutes the reaction ID source. Tests use a
// FixedGenerator for deterministic IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Scheduler) { s.idGen = g }
}

// WithWorkers enables parallel record evaluation with n worker goroutines.
// Records are conceptually independent within a pass; the store serializes
// conflicting component access. Results are reassembled in spawn order so
// the PassResult stays deterministic. n < 2 keeps the sweep sequential.
func WithWorkers(n int) Option {
	return func(s *Scheduler) { s.workers = n }
}

// WithMetrics attaches pass/execution/failure counters to the scheduler.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler creates an empty scheduler with UUIDv7 reaction IDs.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		idGen:   UUIDv7Generator{},
		records: make(map[ReactionID]*record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn registers a reaction under a fresh ID, scoped to the given targets.
// Duplicate targets collapse to one. The record starts with the "never run"
// sentinel snapshot, so it executes on the first pass that sweeps it.
//
// Derive and switch reactions need a scope entity to write on, so spawning
// one with zero targets is rejected.
func (s *Scheduler) Spawn(r *Reaction, targets ...world.Entity) (ReactionID, error) {
	if r == nil {
		return "", fmt.Errorf("engine: spawn nil reaction")
	}
	if (r.kind == KindDerive || r.kind == KindSwitch) && len(targets) == 0 {
		return "", fmt.Errorf("engine: %s reaction needs at least one target", r.kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &record{
		id:       s.idGen.Generate(),
		reaction: r,
		tracker:  track.NewTracker(),
		branches: make(map[world.Entity]bool),
	}
	for _, t := range targets {
		rec.targets = appendTarget(rec.targets, t)
	}
	s.records[rec.id] = rec
	s.order = append(s.order, rec)

	slog.Debug("reaction spawned",
		"reaction", rec.id,
		"kind", r.kind.String(),
		"phase", r.phase,
		"targets", len(rec.targets),
	)
	return rec.id, nil
}

// AddTarget appends an entity to the reaction's target sequence. Adding an
// entity already present is a no-op, preserving set semantics while keeping
// deterministic iteration order.
func (s *Scheduler) AddTarget(id ReactionID, e world.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReaction, id)
	}
	rec.targets = appendTarget(rec.targets, e)
	return nil
}

// Despawn removes the reaction from the registry. An in-flight execution of
// the record completes normally; removal takes effect no later than the
// next pass. Subsequent passes skip the record entirely.
func (s *Scheduler) Despawn(id ReactionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownReaction, id)
	}
	rec.removed = true
	delete(s.records, id)

	kept := s.order[:0]
	for _, r := range s.order {
		if r != rec {
			kept = append(kept, r)
		}
	}
	s.order = kept

	slog.Debug("reaction despawned", "reaction", id)
	return nil
}

// Len returns the number of live records. Used for monitoring and tests.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// RunPass performs one full sweep over every live record, regardless of
// phase. This is the tick entry point for hosts that do not phase their
// reactions.
func (s *Scheduler) RunPass(ctx context.Context, store world.Store) (PassResult, error) {
	return s.runPass(ctx, store, "")
}

// RunPhase performs one sweep over the records spawned with the given
// phase label only.
func (s *Scheduler) RunPhase(ctx context.Context, store world.Store, phase string) (PassResult, error) {
	if phase == "" {
		return PassResult{}, fmt.Errorf("engine: empty phase label")
	}
	return s.runPass(ctx, store, phase)
}

// runPass sweeps the registry. phase == "" matches every record.
//
// One failing reaction never aborts the pass: failures are collected into
// the result and the sweep continues with the next live record.
func (s *Scheduler) runPass(ctx context.Context, store world.Store, phase string) (PassResult, error) {
	s.passMu.Lock()
	defer s.passMu.Unlock()

	s.mu.Lock()
	s.passSeq++
	pass := s.passSeq
	sweep := make([]*record, 0, len(s.order))
	for _, rec := range s.order {
		if phase == "" || rec.reaction.phase == phase {
			sweep = append(sweep, rec)
		}
	}
	s.mu.Unlock()

	result := PassResult{Pass: pass, Phase: phase}

	if s.workers > 1 {
		if err := s.sweepParallel(ctx, store, sweep, &result); err != nil {
			return result, err
		}
	} else {
		for _, rec := range sweep {
			if err := ctx.Err(); err != nil {
				return result, fmt.Errorf("pass %d interrupted: %w", pass, err)
			}
			s.evaluate(store, rec, &result)
		}
	}

	if s.metrics != nil {
		s.metrics.observePass(result)
	}
	slog.Info("pass complete",
		"pass", pass,
		"phase", phase,
		"executed", len(result.Executed),
		"failures", len(result.Failures),
		"fresh", result.Fresh,
	)
	return result, nil
}

// sweepParallel evaluates the sweep slice with a bounded worker pool and
// reassembles the per-record outcomes in spawn order.
func (s *Scheduler) sweepParallel(ctx context.Context, store world.Store, sweep []*record, result *PassResult) error {
	type outcome struct {
		executed  *Execution
		failures  []Failure
		fresh     bool
		evaluated bool
	}

	outcomes := make([]outcome, len(sweep))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				var sub PassResult
				s.evaluate(store, sweep[i], &sub)
				o := outcome{failures: sub.Failures, fresh: sub.Fresh > 0, evaluated: true}
				if len(sub.Executed) > 0 {
					o.executed = &sub.Executed[0]
				}
				outcomes[i] = o
			}
		}()
	}

	var interrupted error
	for i := range sweep {
		if err := ctx.Err(); err != nil {
			interrupted = err
			break
		}
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	for _, o := range outcomes {
		if !o.evaluated {
			continue
		}
		if o.executed != nil {
			result.Executed = append(result.Executed, *o.executed)
		}
		result.Failures = append(result.Failures, o.failures...)
		if o.fresh {
			result.Fresh++
		}
	}
	if interrupted != nil {
		return fmt.Errorf("pass %d interrupted: %w", result.Pass, interrupted)
	}
	return nil
}

// evaluate runs the per-record state machine once: staleness check, then
// execution under a fresh capture scope, then snapshot commit. Outcomes are
// appended to result.
func (s *Scheduler) evaluate(store world.Store, rec *record, result *PassResult) {
	s.mu.Lock()
	removed := rec.removed
	r := rec.reaction
	targets := make([]world.Entity, len(rec.targets))
	copy(targets, rec.targets)
	snapshot := rec.snapshot
	priorBranches := make(map[world.Entity]bool, len(rec.branches))
	for e, on := range rec.branches {
		priorBranches[e] = on
	}
	s.mu.Unlock()

	if removed {
		return
	}

	if !track.Stale(snapshot, store) {
		result.Fresh++
		if s.metrics != nil {
			s.metrics.fresh.Inc()
		}
		return
	}

	capture, err := rec.tracker.Begin()
	if err != nil {
		// A live capture for this record means a programming error; the
		// record stays Idle with its snapshot unchanged.
		result.Failures = append(result.Failures, Failure{
			Reaction: rec.id,
			Code:     CodeCaptureMisuse,
			Err:      &RecordError{Code: CodeCaptureMisuse, Reaction: rec.id, Message: err.Error()},
		})
		slog.Warn("capture misuse", "reaction", rec.id, "error", err)
		return
	}

	exec := Execution{Reaction: rec.id, Kind: r.kind}
	var failures []Failure
	branches := make(map[world.Entity]bool)
	bodyFailed := false

	runTargets := targets
	if len(runTargets) == 0 {
		runTargets = []world.Entity{world.NoEntity}
	}

	for _, target := range runTargets {
		if target != world.NoEntity && !store.Alive(target) {
			// Dead target: skipped for this execution, the rest still run.
			failures = append(failures, Failure{
				Reaction: rec.id,
				Code:     CodeTargetInvalid,
				Err:      NewTargetInvalidError(target),
			})
			continue
		}

		scope := Scope{Entity: target, reader: store, capture: capture}

		var bodyErr error
		switch r.kind {
		case KindPlain:
			bodyErr = r.plain(scope)

		case KindDerive:
			var v world.Value
			v, bodyErr = r.derive(scope)
			if bodyErr == nil {
				store.Set(target, r.output, v)
				exec.Writes = append(exec.Writes, ComponentWrite{Entity: target, Type: r.output, Value: v})
			}

		case KindSwitch:
			var on bool
			on, bodyErr = r.predicate(scope)
			if bodyErr == nil {
				chosen, other, producer := r.trueType, r.falseType, r.onTrue
				if !on {
					chosen, other, producer = r.falseType, r.trueType, r.onFalse
				}
				store.Remove(target, other)
				v := producer()
				store.Set(target, chosen, v)
				exec.Writes = append(exec.Writes, ComponentWrite{Entity: target, Type: chosen, Value: v})
				branches[target] = on
			}
		}

		if bodyErr != nil {
			failures = append(failures, Failure{Reaction: rec.id, Code: classify(bodyErr), Err: bodyErr})
			bodyFailed = true
			break
		}
	}

	if bodyFailed {
		// Failed execution: drop the partial capture and keep the prior
		// snapshot so the record retries on the next pass.
		rec.tracker.Drain(capture)
		result.Failures = append(result.Failures, failures...)
		if s.metrics != nil {
			s.metrics.observeFailures(failures)
		}
		slog.Warn("record execution failed",
			"reaction", rec.id,
			"kind", r.kind.String(),
			"failures", len(failures),
		)
		return
	}

	snapshot = rec.tracker.End(capture)

	for target, on := range branches {
		prev, seen := priorBranches[target]
		if !seen || prev != on {
			exec.BranchFlipped = true
		}
	}

	s.mu.Lock()
	if !rec.removed {
		rec.snapshot = snapshot
		for target, on := range branches {
			rec.branches[target] = on
		}
	}
	s.mu.Unlock()

	result.Executed = append(result.Executed, exec)
	result.Failures = append(result.Failures, failures...)
	if s.metrics != nil {
		s.metrics.executions.Inc()
		s.metrics.observeFailures(failures)
	}
	slog.Debug("record executed",
		"reaction", rec.id,
		"kind", r.kind.String(),
		"reads", len(snapshot),
		"writes", len(exec.Writes),
	)
}

// appendTarget appends e unless already present (set semantics over an
// ordered sequence).
func appendTarget(targets []world.Entity, e world.Entity) []world.Entity {
	for _, t := range targets {
		if t == e {
			return targets
		}
	}
	return append(targets, e)
}
