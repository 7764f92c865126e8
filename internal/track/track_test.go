package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reverb/internal/world"
)

func TestTracker_CaptureLifecycle(t *testing.T) {
	tr := NewTracker()

	c, err := tr.Begin()
	require.NoError(t, err)

	c.Record(1, "health", 5)
	c.RecordType("damage", 7)

	snap := tr.End(c)
	require.NotNil(t, snap)
	assert.Len(t, snap, 2)
	assert.Equal(t, int64(5), snap[Key{Entity: 1, Type: "health"}])
	assert.Equal(t, int64(7), snap[Key{Entity: world.NoEntity, Type: "damage"}])

	// Ended capture ignores further records.
	c.Record(2, "health", 9)
	assert.Len(t, snap, 2)
}

func TestTracker_BeginWhileActive(t *testing.T) {
	tr := NewTracker()

	c, err := tr.Begin()
	require.NoError(t, err)

	_, err = tr.Begin()
	assert.ErrorIs(t, err, ErrCaptureActive)

	// The original capture survives the failed Begin.
	c.Record(1, "health", 1)
	snap := tr.End(c)
	assert.Len(t, snap, 1)

	// After End, a new capture is allowed.
	_, err = tr.Begin()
	assert.NoError(t, err)
}

func TestTracker_DrainDiscards(t *testing.T) {
	tr := NewTracker()

	c, err := tr.Begin()
	require.NoError(t, err)
	c.Record(1, "health", 1)

	tr.Drain(c)

	// Drained capture leaves the tracker ready for a fresh scope.
	c2, err := tr.Begin()
	require.NoError(t, err)
	snap := tr.End(c2)
	assert.Empty(t, snap)
}

func TestCapture_DedupKeepsFirstStamp(t *testing.T) {
	tr := NewTracker()
	c, err := tr.Begin()
	require.NoError(t, err)

	// The stamp at first read wins: a later re-read (possibly after an
	// interleaved write) must not mask the change.
	c.Record(1, "health", 5)
	c.Record(1, "health", 9)

	snap := tr.End(c)
	assert.Equal(t, int64(5), snap[Key{Entity: 1, Type: "health"}])
}

func TestStale_NeverRunSentinel(t *testing.T) {
	w := world.New()
	assert.True(t, Stale(nil, w), "nil snapshot is always stale")
	assert.False(t, Stale(Snapshot{}, w), "empty snapshot of a zero-read body is fresh")
}

func TestStale_FineGrained(t *testing.T) {
	w := world.New()
	e := w.Spawn()
	w.Set(e, "health", 100)

	v, ok := w.Version(e, "health")
	require.True(t, ok)
	snap := Snapshot{{Entity: e, Type: "health"}: v}

	assert.False(t, Stale(snap, w), "unchanged component is fresh")

	w.Set(e, "health", 50)
	assert.True(t, Stale(snap, w), "replaced value marks the snapshot stale")
}

func TestStale_AbsenceIsStale(t *testing.T) {
	w := world.New()
	e := w.Spawn()
	w.Set(e, "health", 100)

	v, _ := w.Version(e, "health")
	snap := Snapshot{{Entity: e, Type: "health"}: v}

	w.Remove(e, "health")
	assert.True(t, Stale(snap, w), "removal of a previously-read component is staleness")
}

func TestStale_AbsentReadStaysDormant(t *testing.T) {
	w := world.New()
	e := w.Spawn()

	// A read that resolved absent was stamped 0. While the component stays
	// absent nothing has drifted.
	snap := Snapshot{{Entity: e, Type: "health"}: 0}
	assert.False(t, Stale(snap, w), "still-absent read is not drift")

	// Insertion wakes the record.
	w.Set(e, "health", 100)
	assert.True(t, Stale(snap, w))
}

func TestStale_Coarse(t *testing.T) {
	w := world.New()
	a := w.Spawn()
	b := w.Spawn()
	w.Set(a, "damage", 1)

	snap := Snapshot{{Entity: world.NoEntity, Type: "damage"}: w.TypeVersion("damage")}
	assert.False(t, Stale(snap, w))

	// A write to a DIFFERENT entity's instance still trips the coarse entry.
	w.Set(b, "damage", 2)
	assert.True(t, Stale(snap, w))
}
