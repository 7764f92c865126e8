package scenario

// Scenario is a declarative test/demo script for the engine: an initial
// world, a set of reactions by preset name, and per-tick mutations.
//
// Component values are restricted to ints, strings, and bools so every
// value round-trips through canonical JSON in journal rows and golden
// traces (floats are forbidden there).
type Scenario struct {
	Name      string        `yaml:"name"`
	Ticks     int           `yaml:"ticks"`
	Entities  []EntityDef   `yaml:"entities"`
	Reactions []ReactionDef `yaml:"reactions"`
	Script    []Step        `yaml:"script"`
}

// EntityDef declares one entity and its initial components. Scenario
// entities are referenced by name; the harness maps names to store IDs.
type EntityDef struct {
	Name       string         `yaml:"name"`
	Components map[string]any `yaml:"components"`
}

// ReactionDef declares one reaction to spawn. Preset names resolve to
// Go-registered bodies in the harness; the reaction's scenario name doubles
// as its ReactionID for deterministic traces.
type ReactionDef struct {
	Name    string   `yaml:"name"`
	Preset  string   `yaml:"preset"`
	Targets []string `yaml:"targets"`
}

// Step is the set of mutations applied before the pass of a given tick.
// Ticks are 1-based; a step with tick N runs after pass N-1 and before
// pass N.
type Step struct {
	Tick int  `yaml:"tick"`
	Ops  []Op `yaml:"ops"`
}

// Op is one scripted mutation. Which fields are meaningful depends on Op:
//
//	set:              entity, type, value
//	remove:           entity, type
//	despawn-entity:   entity
//	despawn-reaction: reaction
//	add-target:       reaction, entity
type Op struct {
	Op       string `yaml:"op"`
	Entity   string `yaml:"entity,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Value    any    `yaml:"value,omitempty"`
	Reaction string `yaml:"reaction,omitempty"`
}
