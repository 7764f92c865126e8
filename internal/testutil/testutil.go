// Package testutil provides deterministic helpers shared by tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/roach88/reverb/internal/journal"
	"github.com/roach88/reverb/internal/scenario"
)

// TempJournal opens a journal in a per-test temporary directory and closes
// it when the test ends.
func TempJournal(t *testing.T) *journal.Journal {
	t.Helper()

	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open temp journal: %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("close temp journal: %v", err)
		}
	})
	return j
}

// MustParseScenario parses inline scenario YAML, failing the test on error.
func MustParseScenario(t *testing.T, doc string) *scenario.Scenario {
	t.Helper()

	sc, err := scenario.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse scenario: %v", err)
	}
	return sc
}
