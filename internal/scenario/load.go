package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads, validates, and decodes a scenario YAML file.
//
// Validation runs before decoding: the raw document is unified with the
// embedded #Scenario CUE schema, so malformed scenarios fail with
// positioned schema errors rather than zero-valued structs.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes scenario YAML bytes. See Load.
func Parse(data []byte) (*Scenario, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode scenario yaml: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("scenario is empty")
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario yaml: %w", err)
	}
	if err := checkReferences(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// validate unifies the raw document with the embedded schema.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup #Scenario: %w", err)
	}

	doc := ctx.Encode(raw)
	if err := doc.Err(); err != nil {
		return fmt.Errorf("encode scenario document: %w", err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Final(), cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario schema validation failed:\n%s", cueerrors.Details(err, nil))
	}
	return nil
}

// checkReferences verifies that script ops and reaction targets name
// declared entities and reactions. The CUE schema cannot see across
// sections, so referential integrity is checked here.
func checkReferences(sc *Scenario) error {
	entities := make(map[string]bool, len(sc.Entities))
	for _, e := range sc.Entities {
		if entities[e.Name] {
			return fmt.Errorf("duplicate entity name: %s", e.Name)
		}
		entities[e.Name] = true
	}

	reactions := make(map[string]bool, len(sc.Reactions))
	for _, r := range sc.Reactions {
		if reactions[r.Name] {
			return fmt.Errorf("duplicate reaction name: %s", r.Name)
		}
		reactions[r.Name] = true
		for _, t := range r.Targets {
			if !entities[t] {
				return fmt.Errorf("reaction %s: unknown target entity: %s", r.Name, t)
			}
		}
	}

	for _, step := range sc.Script {
		if step.Tick > sc.Ticks {
			return fmt.Errorf("script step at tick %d exceeds scenario ticks (%d)", step.Tick, sc.Ticks)
		}
		for _, op := range step.Ops {
			if op.Entity != "" && !entities[op.Entity] {
				return fmt.Errorf("tick %d: op %s: unknown entity: %s", step.Tick, op.Op, op.Entity)
			}
			if op.Reaction != "" && !reactions[op.Reaction] {
				return fmt.Errorf("tick %d: op %s: unknown reaction: %s", step.Tick, op.Op, op.Reaction)
			}
			if err := checkOpShape(op); err != nil {
				return fmt.Errorf("tick %d: %w", step.Tick, err)
			}
		}
	}
	return nil
}

// checkOpShape verifies the fields each op kind requires.
func checkOpShape(op Op) error {
	switch op.Op {
	case "set":
		if op.Entity == "" || op.Type == "" || op.Value == nil {
			return fmt.Errorf("op set requires entity, type, and value")
		}
	case "remove":
		if op.Entity == "" || op.Type == "" {
			return fmt.Errorf("op remove requires entity and type")
		}
	case "despawn-entity":
		if op.Entity == "" {
			return fmt.Errorf("op despawn-entity requires entity")
		}
	case "despawn-reaction":
		if op.Reaction == "" {
			return fmt.Errorf("op despawn-reaction requires reaction")
		}
	case "add-target":
		if op.Reaction == "" || op.Entity == "" {
			return fmt.Errorf("op add-target requires reaction and entity")
		}
	default:
		return fmt.Errorf("unknown op: %s", op.Op)
	}
	return nil
}
