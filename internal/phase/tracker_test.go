package phase

import (
	"sync"
	"testing"
	"time"

	"charmstudio/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixedClock(t *Tracker) {
	t.now = func() time.Time { return time.Date(2024, 5, 1, 14, 3, 9, 0, time.UTC) }
}

func TestTracker_StartSeedsState(t *testing.T) {
	tr := NewTracker(nil)
	fixedClock(tr)
	key := Key{Kind: KindProve, Target: "c1"}

	require.NoError(t, tr.Start(key, "Casting Spell Proof", 0, []string{"$ seed"}))
	tr.Log(key, "step one")

	st, ok := tr.Operation(key)
	require.True(t, ok)
	assert.True(t, st.IsGenerating)
	assert.Equal(t, "Casting Spell Proof", st.Step)
	assert.Equal(t, []string{"$ seed", "[14:03:09] step one"}, st.Lines())
	assert.Equal(t, "prove:c1", st.Operation)
}

func TestTracker_ProgressNeverDecreases(t *testing.T) {
	tr := NewTracker(nil)
	key := Key{Kind: KindBeam, Target: "c1"}
	require.NoError(t, tr.Start(key, "Beaming", 50, nil))

	assert.Equal(t, 50, tr.SetProgress(key, 25))
	assert.Equal(t, 75, tr.SetProgress(key, 75))
	assert.Equal(t, 100, tr.SetProgress(key, 250))
}

func TestTracker_AdvanceCapped(t *testing.T) {
	tr := NewTracker(nil)
	key := Key{Kind: KindForge, Target: "req"}
	require.NoError(t, tr.Start(key, "Enchanting UTXO...", 10, nil))

	var seen []int
	for i := 0; i < 8; i++ {
		seen = append(seen, tr.Advance(key, 15, 95))
	}
	assert.Equal(t, []int{25, 40, 55, 70, 85, 95, 95, 95}, seen)
}

func TestTracker_RejectsSecondRunForSameTarget(t *testing.T) {
	tr := NewTracker(nil)
	require.NoError(t, tr.Start(Key{Kind: KindProve, Target: "c1"}, "", 0, nil))

	err := tr.Start(Key{Kind: KindBroadcast, Target: "c1"}, "", 50, nil)
	assert.ErrorIs(t, err, ErrInFlight)
	assert.True(t, tr.InFlight("c1"))

	tr.Finish(Key{Kind: KindProve, Target: "c1"})
	assert.False(t, tr.InFlight("c1"))
	assert.NoError(t, tr.Start(Key{Kind: KindBroadcast, Target: "c1"}, "", 50, nil))
}

func TestTracker_ConcurrentRunsDoNotClobber(t *testing.T) {
	tr := NewTracker(nil)
	a := Key{Kind: KindProve, Target: "a"}
	b := Key{Kind: KindBeam, Target: "b"}
	require.NoError(t, tr.Start(a, "Casting Spell Proof", 0, []string{"seed a"}))
	require.NoError(t, tr.Start(b, "Beaming to Cardano", 0, []string{"seed b"}))

	tr.Log(a, "a1")
	tr.SetProgress(a, 45)
	tr.Log(b, "b1")
	tr.SetProgress(b, 25)

	sa, _ := tr.Operation(a)
	sb, _ := tr.Operation(b)
	assert.Equal(t, 45, sa.Progress)
	assert.Equal(t, 25, sb.Progress)
	assert.Len(t, sa.Logs, 2)
	assert.Len(t, sb.Logs, 2)
	assert.Equal(t, "a1", sa.Logs[1].Message)
	assert.Equal(t, "b1", sb.Logs[1].Message)
	assert.Len(t, tr.Active(), 2)
}

func TestTracker_CurrentJoinsActiveOperations(t *testing.T) {
	tr := NewTracker(nil)
	cur := tr.Current()
	assert.False(t, cur.IsGenerating)
	assert.Empty(t, cur.Logs)

	a := Key{Kind: KindProve, Target: "a"}
	b := Key{Kind: KindBroadcast, Target: "b"}
	require.NoError(t, tr.Start(a, "Casting Spell Proof", 0, nil))
	require.NoError(t, tr.Start(b, "Inscribing to Bitcoin", 50, nil))

	cur = tr.Current()
	assert.Equal(t, "Inscribing to Bitcoin", cur.Step, "latest started operation is shown")
	assert.True(t, cur.IsGenerating)

	tr.Finish(b)
	cur = tr.Current()
	assert.Equal(t, "Inscribing to Bitcoin", cur.Step)
	assert.True(t, cur.IsGenerating, "a is still running")

	tr.Finish(a)
	assert.False(t, tr.Current().IsGenerating)
}

func TestTracker_PrunesFinishedHistory(t *testing.T) {
	tr := NewTracker(nil)
	tr.history = 3
	running := Key{Kind: KindProve, Target: "keep"}
	require.NoError(t, tr.Start(running, "", 0, nil))

	for _, id := range []string{"x", "y", "z", "w"} {
		k := Key{Kind: KindBroadcast, Target: id}
		require.NoError(t, tr.Start(k, "", 50, nil))
		tr.Finish(k)
	}

	_, ok := tr.Operation(running)
	assert.True(t, ok, "running operations are never pruned")
	_, ok = tr.Operation(Key{Kind: KindBroadcast, Target: "x"})
	assert.False(t, ok)
	_, ok = tr.Operation(Key{Kind: KindBroadcast, Target: "w"})
	assert.True(t, ok)
}

func TestTracker_PublishesEvents(t *testing.T) {
	bus := events.NewBus(16)
	ch := bus.Subscribe()
	defer bus.Close()

	tr := NewTracker(bus)
	key := Key{Kind: KindProve, Target: "c1"}
	require.NoError(t, tr.Start(key, "Casting Spell Proof", 0, nil))
	tr.Log(key, "hello")
	tr.SetProgress(key, 20)
	tr.Finish(key)

	var kinds []events.Kind
	for i := 0; i < 4; i++ {
		evt := <-ch
		assert.Equal(t, "c1", evt.CharmID)
		kinds = append(kinds, evt.Kind)
	}
	assert.Equal(t, []events.Kind{
		events.KindOperationStarted,
		events.KindOperationLog,
		events.KindOperationProgress,
		events.KindOperationFinished,
	}, kinds)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key{Kind: KindProve, Target: string(rune('a' + i))}
			if err := tr.Start(key, "", 0, nil); err != nil {
				t.Error(err)
				return
			}
			for p := 0; p <= 100; p += 10 {
				tr.SetProgress(key, p)
				tr.Log(key, "tick")
				_ = tr.Current()
			}
			tr.Finish(key)
		}(i)
	}
	wg.Wait()
	assert.Empty(t, tr.Active())
}
