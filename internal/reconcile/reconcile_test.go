package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/kgview/internal/weighing"
)

func rec(seq int) weighing.Record {
	return weighing.New(map[string]any{"systeem_id": "s", "volgnummer": seq})
}

func ids(rs []weighing.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	r := New()
	r.ApplyFull([]weighing.Record{rec(1), rec(2)}, "t1")
	require.Equal(t, []string{"s:1", "s:2"}, ids(r.Records()))

	require.Equal(t, Applied, r.ApplyDelta([]weighing.Record{rec(3)}, "t2", "t1"))
	require.Equal(t, []string{"s:1", "s:2", "s:3"}, ids(r.Records()))
	last, ok := r.LastChange()
	require.True(t, ok)
	require.Equal(t, "t2", last)

	require.Equal(t, ResyncRequired, r.ApplyDelta([]weighing.Record{rec(4)}, "t4", "t3"))
	require.Equal(t, []string{"s:1", "s:2", "s:3"}, ids(r.Records()))
	last, _ = r.LastChange()
	require.Equal(t, "t2", last)
}

func TestDeltaIsIdempotent(t *testing.T) {
	r := New()
	r.ApplyFull([]weighing.Record{rec(1)}, "t1")
	delta := []weighing.Record{rec(2)}

	require.Equal(t, Applied, r.ApplyDelta(delta, "t2", "t1"))
	require.Equal(t, Unchanged, r.ApplyDelta(delta, "t2", "t1"))
	require.Equal(t, 2, r.Len())
}

func TestBootstrapDiscard(t *testing.T) {
	r := New()
	require.Equal(t, IgnoredBootstrap, r.ApplyDelta([]weighing.Record{rec(1)}, "t2", "t1"))
	require.Zero(t, r.Len())
	_, ok := r.LastChange()
	require.False(t, ok)
}

func TestFullRefreshReplaces(t *testing.T) {
	r := New()
	r.ApplyFull([]weighing.Record{rec(1), rec(2)}, "t1")
	require.Equal(t, ResyncRequired, r.ApplyDelta([]weighing.Record{rec(9)}, "t9", "t8"))

	r.ApplyFull([]weighing.Record{rec(5)}, "t8")
	require.Equal(t, []string{"s:5"}, ids(r.Records()))
	require.Equal(t, Applied, r.ApplyDelta([]weighing.Record{rec(9)}, "t9", "t8"))
	require.Equal(t, []string{"s:5", "s:9"}, ids(r.Records()))
}

func TestOutcomeString(t *testing.T) {
	require.Equal(t, "resync-required", ResyncRequired.String())
	require.Equal(t, "ignored-bootstrap", IgnoredBootstrap.String())
}
