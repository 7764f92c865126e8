package harness

import (
	"fmt"
	"log/slog"

	"github.com/roach88/reverb/internal/engine"
	"github.com/roach88/reverb/internal/world"
)

// PresetFunc builds a reaction body for a scenario. Presets exist because
// scenario files are declarative: they can name a behavior but not define
// one, so the executable bodies live here.
type PresetFunc func() *engine.Reaction

// presets maps scenario preset names to reaction constructors.
//
// The built-in set covers the behaviors the engine's combinators exist for:
// a fine-grained derive, a fine-grained switch, a coarse observer, and a
// coarse aggregate.
var presets = map[string]PresetFunc{
	// damage-from-health: Damage = Health * 2, tracked per target entity.
	"damage-from-health": func() *engine.Reaction {
		return engine.Derive("damage", func(s engine.Scope) (world.Value, error) {
			h, err := s.GetScoped("health")
			if err != nil {
				return nil, err
			}
			n, err := asInt(h)
			if err != nil {
				return nil, fmt.Errorf("health: %w", err)
			}
			return n * 2, nil
		})
	},

	// armor-switch: Health == 0 grants Armor(50), otherwise Damage(100).
	"armor-switch": func() *engine.Reaction {
		return engine.Switch(
			func(s engine.Scope) (bool, error) {
				h, err := s.GetScoped("health")
				if err != nil {
					return false, err
				}
				n, err := asInt(h)
				if err != nil {
					return false, fmt.Errorf("health: %w", err)
				}
				return n == 0, nil
			},
			"armor", func() world.Value { return 50 },
			"damage", func() world.Value { return 100 },
		)
	},

	// damage-logger: coarse observer, re-runs whenever any damage changes.
	"damage-logger": func() *engine.Reaction {
		return engine.New(func(s engine.Scope) error {
			for _, e := range s.Query("damage") {
				if v, ok := s.Lookup(e, "damage"); ok {
					slog.Debug("damage observed", "entity", e, "damage", v)
				}
			}
			return nil
		})
	},

	// total-health: coarse aggregate, writes the sum of all health
	// components onto the target entity.
	"total-health": func() *engine.Reaction {
		return engine.Derive("health_total", func(s engine.Scope) (world.Value, error) {
			total := 0
			for _, e := range s.Query("health") {
				v, ok := s.Lookup(e, "health")
				if !ok {
					continue
				}
				n, err := asInt(v)
				if err != nil {
					return nil, fmt.Errorf("health of entity %d: %w", e, err)
				}
				total += n
			}
			return total, nil
		})
	},
}

// presetOutputTypes collects every component type any preset can write, so
// final-state readback covers derived and switched components without a
// hand-maintained list.
func presetOutputTypes() map[world.ComponentType]bool {
	types := make(map[world.ComponentType]bool)
	for _, build := range presets {
		r := build()
		if t := r.Output(); t != "" {
			types[t] = true
		}
		tt, ft := r.BranchTypes()
		if tt != "" {
			types[tt] = true
		}
		if ft != "" {
			types[ft] = true
		}
	}
	return types
}

// LookupPreset resolves a scenario preset name to a fresh reaction.
func LookupPreset(name string) (*engine.Reaction, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown reaction preset: %s", name)
	}
	return build(), nil
}

// asInt coerces the integer representations that reach component values
// from YAML decoding and preset writes.
func asInt(v world.Value) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected integer component, got %T", v)
	}
}
