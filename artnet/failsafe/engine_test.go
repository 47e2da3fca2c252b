package failsafe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gopatchy/artnode/artnet/addr"
)

var port1 = addr.Compose(0, 0, 1)

func TestZeroFailsafeLiteralScenario(t *testing.T) {
	e := New(Config{Enabled: true, IdleTimeout: 6 * time.Second, TickInterval: 100 * time.Millisecond})
	e.SetMode(port1, ModeZero)

	t0 := time.Unix(0, 0)
	e.NoteRealOutput(t0, port1, []byte{10, 20, 30})

	subs := e.Sweep(t0.Add(6001 * time.Millisecond))
	require.Len(t, subs, 1)
	require.Equal(t, []byte{0, 0, 0}, subs[0].Data)
	require.True(t, subs[0].Engaged, "expected Engaged true on first sweep past idle timeout")
}

func TestFullFailsafeFillsFF(t *testing.T) {
	e := New(Config{Enabled: true, IdleTimeout: time.Second})
	e.SetMode(port1, ModeFull)
	t0 := time.Unix(0, 0)
	e.NoteRealOutput(t0, port1, []byte{1, 2, 3})

	subs := e.Sweep(t0.Add(2 * time.Second))
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF}, subs[0].Data)
}

func TestSceneFailsafeUsesRecordedScene(t *testing.T) {
	e := New(Config{Enabled: true, IdleTimeout: time.Second})
	e.SetMode(port1, ModeScene)
	e.RecordScene(port1, []byte{7, 8, 9})

	t0 := time.Unix(0, 0)
	e.NoteRealOutput(t0, port1, []byte{1, 2, 3})
	subs := e.Sweep(t0.Add(2 * time.Second))

	require.Equal(t, []byte{7, 8, 9}, subs[0].Data)
}

func TestSceneFailsafeNoOpWithoutRecordedScene(t *testing.T) {
	e := New(Config{Enabled: true, IdleTimeout: time.Second})
	e.SetMode(port1, ModeScene)
	t0 := time.Unix(0, 0)
	e.NoteRealOutput(t0, port1, []byte{1})

	subs := e.Sweep(t0.Add(2 * time.Second))
	require.Empty(t, subs, "expected no substitution without a recorded scene")
}

func TestHoldModeNeverSubstitutes(t *testing.T) {
	e := New(Config{Enabled: true, IdleTimeout: time.Second})
	e.SetMode(port1, ModeHold)
	t0 := time.Unix(0, 0)
	e.NoteRealOutput(t0, port1, []byte{1})

	subs := e.Sweep(t0.Add(time.Hour))
	require.Empty(t, subs, "hold mode must never produce a substitution")
}

func TestRealOutputClearsPlayback(t *testing.T) {
	e := New(Config{Enabled: true, IdleTimeout: time.Second})
	e.SetMode(port1, ModeZero)
	t0 := time.Unix(0, 0)
	e.NoteRealOutput(t0, port1, []byte{1, 2})
	e.Sweep(t0.Add(2 * time.Second))
	require.True(t, e.Playing(port1), "expected playback to be active after a sweep substitution")

	wasPlaying := e.NoteRealOutput(t0.Add(3*time.Second), port1, []byte{9, 9})
	require.True(t, wasPlaying, "NoteRealOutput should report the prior playback")
	require.False(t, e.Playing(port1), "playback should clear once real ArtDmx arrives")
}

func TestDisabledEngineNeverSweeps(t *testing.T) {
	e := New(DefaultConfig())
	e.SetMode(port1, ModeZero)
	t0 := time.Unix(0, 0)
	e.NoteRealOutput(t0, port1, []byte{1})
	require.Empty(t, e.Sweep(t0.Add(time.Hour)), "disabled engine should never emit substitutions")
}
