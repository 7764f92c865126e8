package harness

import (
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reverb/internal/journal"
	"github.com/roach88/reverb/internal/scenario"
)

// toCanonicalMap converts a Result to plain maps and slices for canonical
// JSON serialization. Canonical encoding handles only primitives, []any,
// and map[string]any.
func (r *Result) toCanonicalMap() map[string]any {
	passes := make([]any, len(r.Passes))
	for i, pt := range r.Passes {
		outcomes := make([]any, len(pt.Outcomes))
		for j, o := range pt.Outcomes {
			event := map[string]any{
				"reaction": o.Reaction,
				"outcome":  o.Outcome,
			}
			if o.Kind != "" {
				event["kind"] = o.Kind
			}
			if o.FailureCode != "" {
				event["failure_code"] = o.FailureCode
			}
			if len(o.Writes) > 0 {
				writes := make([]any, len(o.Writes))
				for k, w := range o.Writes {
					writes[k] = map[string]any{
						"entity": w.Entity,
						"type":   w.Type,
						"value":  w.Value,
					}
				}
				event["writes"] = writes
			}
			outcomes[j] = event
		}
		passes[i] = map[string]any{
			"pass":     int64(pt.Pass),
			"fresh":    pt.Fresh,
			"outcomes": outcomes,
		}
	}

	state := make(map[string]any, len(r.FinalState))
	for name, components := range r.FinalState {
		c := make(map[string]any, len(components))
		for t, v := range components {
			c[t] = v
		}
		state[name] = c
	}

	return map[string]any{
		"scenario_name": r.ScenarioName,
		"passes":        passes,
		"final_state":   state,
	}
}

// Canonical serializes the result as canonical JSON.
func (r *Result) Canonical() ([]byte, error) {
	return journal.MarshalCanonical(r.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file in testdata/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, sc *scenario.Scenario) error {
	t.Helper()

	result, err := Run(context.Background(), sc)
	if err != nil {
		return err
	}

	data, err := result.Canonical()
	if err != nil {
		return fmt.Errorf("canonicalize trace: %w", err)
	}

	g := goldie.New(t)
	g.Assert(t, sc.Name, data)
	return nil
}
