package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	path := writeScenarioFile(t, demoScenario)

	out, err := executeCommand("validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `scenario "health-derive" valid`)
	assert.Contains(t, out, "1 entities, 1 reactions, 3 ticks")
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	path := writeScenarioFile(t, demoScenario)

	out, err := executeCommand("validate", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)
}

func TestValidateCommand_SchemaViolation(t *testing.T) {
	path := writeScenarioFile(t, "name: broken\nticks: 0\n")

	_, err := executeCommand("validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario invalid")
}

func TestValidateCommand_BrokenReference(t *testing.T) {
	path := writeScenarioFile(t, `
name: broken
ticks: 1
reactions:
  - {name: r, preset: damage-from-health, targets: [ghost]}
`)

	_, err := executeCommand("validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown target entity")
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, err := executeCommand("validate", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
