package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gopatchy/artnode/artnet/addr"
)

var basePort = addr.Compose(1, 2, 3)

func TestHTPMergeLiteralScenario(t *testing.T) {
	e := New()
	now := time.Unix(0, 0)

	e.Ingest(now, basePort, SourceKey{Host: "a"}, []byte{100, 0, 50}, ModeHTP)
	res := e.Ingest(now, basePort, SourceKey{Host: "b"}, []byte{0, 100, 200}, ModeHTP)

	require.Equal(t, []byte{100, 100, 200}, res.Output)
	require.True(t, res.TwoActive, "expected TwoActive once 2 sources are active")
}

func TestLTPMergeUsesLatest(t *testing.T) {
	e := New()
	t0 := time.Unix(0, 0)
	t1 := t0.Add(time.Second)

	e.Ingest(t0, basePort, SourceKey{Host: "a"}, []byte{1, 1, 1}, ModeLTP)
	res := e.Ingest(t1, basePort, SourceKey{Host: "b"}, []byte{2, 2, 2}, ModeLTP)

	require.Equal(t, []byte{2, 2, 2}, res.Output, "LTP merge should use latest source")
}

func TestThirdSourceRejectedHoldsLastOutput(t *testing.T) {
	e := New()
	now := time.Unix(0, 0)

	e.Ingest(now, basePort, SourceKey{Host: "a"}, []byte{1, 2, 3}, ModeHTP)
	res := e.Ingest(now, basePort, SourceKey{Host: "b"}, []byte{4, 5, 6}, ModeHTP)
	last := res.Output

	res = e.Ingest(now, basePort, SourceKey{Host: "c"}, []byte{9, 9, 9}, ModeHTP)
	require.True(t, res.Rejected, "expected 3rd source to be rejected")
	require.Equal(t, last, res.Output, "rejected ingest must not change output")
	require.Equal(t, 2, e.SourceCount(basePort), "3rd source must not be added")
}

func TestSourceEvictedAfterTTL(t *testing.T) {
	e := New()
	t0 := time.Unix(0, 0)

	e.Ingest(t0, basePort, SourceKey{Host: "a"}, []byte{1, 2, 3}, ModeHTP)
	require.Equal(t, 1, e.SourceCount(basePort))

	t1 := t0.Add(11 * time.Second)
	e.Ingest(t1, basePort, SourceKey{Host: "b"}, []byte{4, 5, 6}, ModeHTP)
	require.Equal(t, 1, e.SourceCount(basePort), "stale source a must be pruned")
}

func TestCancelMergeClearsSources(t *testing.T) {
	e := New()
	now := time.Unix(0, 0)

	e.Ingest(now, basePort, SourceKey{Host: "a"}, []byte{1}, ModeHTP)
	e.Ingest(now, basePort, SourceKey{Host: "b"}, []byte{2}, ModeHTP)
	require.Equal(t, 2, e.SourceCount(basePort), "expected 2 sources before cancel")

	e.ArmCancelMerge(basePort)
	e.Ingest(now, basePort, SourceKey{Host: "c"}, []byte{3}, ModeHTP)
	require.Equal(t, 1, e.SourceCount(basePort), "table should be cleared then c added")
}
