package harness

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/reverb/internal/testutil"
)

func TestGolden_HealthDerive(t *testing.T) {
	sc := testutil.MustParseScenario(t, `
name: health-derive
ticks: 3
entities:
  - name: hero
    components:
      health: 100
reactions:
  - name: damage-from-health
    preset: damage-from-health
    targets: [hero]
script:
  - tick: 3
    ops:
      - {op: set, entity: hero, type: health, value: 50}
`)
	require.NoError(t, RunWithGolden(t, sc))
}

func TestGolden_ArmorSwitch(t *testing.T) {
	sc := testutil.MustParseScenario(t, `
name: armor-switch
ticks: 3
entities:
  - name: hero
    components:
      health: 0
reactions:
  - name: guard
    preset: armor-switch
    targets: [hero]
script:
  - tick: 2
    ops:
      - {op: set, entity: hero, type: health, value: 1}
`)
	require.NoError(t, RunWithGolden(t, sc))
}
