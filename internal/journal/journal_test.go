package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reverb/internal/engine"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")

	j1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j1.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	passes, err := j2.ListPasses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, passes)
}

func TestJournal_RecordAndListPasses(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	result := engine.PassResult{
		Pass:  1,
		Phase: "post_update",
		Executed: []engine.Execution{
			{
				Reaction: "damage-from-health",
				Kind:     engine.KindDerive,
				Writes:   []engine.ComponentWrite{{Entity: 1, Type: "damage", Value: 200}},
			},
		},
		Failures: []engine.Failure{
			{Reaction: "broken", Code: engine.CodeMissingComponent},
		},
		Fresh: 2,
	}
	require.NoError(t, j.Record(ctx, result))

	passes, err := j.ListPasses(ctx)
	require.NoError(t, err)
	require.Len(t, passes, 1)
	assert.Equal(t, PassRow{Seq: 1, Phase: "post_update", Executed: 1, Failures: 1, Fresh: 2}, passes[0])
}

func TestJournal_ListExecutions(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, engine.PassResult{
		Pass: 1,
		Executed: []engine.Execution{
			{
				Reaction: "r-1",
				Kind:     engine.KindDerive,
				Writes:   []engine.ComponentWrite{{Entity: 7, Type: "damage", Value: 50}},
			},
			{Reaction: "r-2", Kind: engine.KindPlain},
		},
		Failures: []engine.Failure{
			{Reaction: "r-3", Code: engine.CodeTargetInvalid},
		},
	}))

	execs, err := j.ListExecutions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, execs, 3)

	assert.Equal(t, "r-1", execs[0].ReactionID)
	assert.Equal(t, "derive", execs[0].Kind)
	assert.Equal(t, "executed", execs[0].Outcome)
	assert.Equal(t, `[{"entity":7,"type":"damage","value":50}]`, execs[0].Writes)

	assert.Equal(t, "r-2", execs[1].ReactionID)
	assert.Equal(t, "plain", execs[1].Kind)
	assert.Equal(t, "[]", execs[1].Writes)

	assert.Equal(t, "r-3", execs[2].ReactionID)
	assert.Equal(t, "failed", execs[2].Outcome)
	assert.Equal(t, "TARGET_INVALID", execs[2].FailureCode)

	none, err := j.ListExecutions(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestJournal_ListReaction(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for pass := int64(1); pass <= 3; pass++ {
		require.NoError(t, j.Record(ctx, engine.PassResult{
			Pass: pass,
			Executed: []engine.Execution{
				{Reaction: "tracked", Kind: engine.KindPlain},
				{Reaction: "other", Kind: engine.KindPlain},
			},
		}))
	}

	execs, err := j.ListReaction(ctx, "tracked")
	require.NoError(t, err)
	require.Len(t, execs, 3)
	for i, e := range execs {
		assert.Equal(t, int64(i+1), e.PassSeq)
		assert.Equal(t, "tracked", e.ReactionID)
	}
}

func TestJournal_AppendOnly(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, engine.PassResult{Pass: 1}))

	// Re-recording the same pass seq violates the primary key.
	err := j.Record(ctx, engine.PassResult{Pass: 1})
	assert.Error(t, err)

	// The failed transaction leaves the journal intact.
	passes, err := j.ListPasses(ctx)
	require.NoError(t, err)
	assert.Len(t, passes, 1)
}

func TestJournal_SwitchWritesRoundTrip(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, engine.PassResult{
		Pass: 1,
		Executed: []engine.Execution{
			{
				Reaction:      "armor-switch",
				Kind:          engine.KindSwitch,
				Writes:        []engine.ComponentWrite{{Entity: 1, Type: "armor", Value: 50}},
				BranchFlipped: true,
			},
		},
	}))

	execs, err := j.ListExecutions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, "switch", execs[0].Kind)
	assert.Equal(t, `[{"entity":1,"type":"armor","value":50}]`, execs[0].Writes)
}
