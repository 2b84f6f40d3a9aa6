package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/worktime/internal/interval"
	"github.com/theirongolddev/worktime/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker(t *testing.T, backend string, start time.Time) (*Tracker, store.Store, *clock) {
	t.Helper()
	st, err := store.Open(store.Options{Backend: backend, Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	clk := &clock{t: start}
	tr, err := Open(context.Background(), st, Options{Now: clk.now, Loc: time.UTC})
	require.NoError(t, err)
	return tr, st, clk
}

func noon() time.Time {
	return time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
}

func TestTracker_StartStopFlush(t *testing.T) {
	tr, st, clk := newTestTracker(t, store.BackendJSON, noon())
	ctx := context.Background()

	require.NoError(t, tr.Start(ctx, interval.NewLabels("api")))
	assert.True(t, tr.Running())

	cur, err := st.LoadCurrent(ctx)
	require.NoError(t, err)
	require.NotNil(t, cur, "open interval is persisted on start")

	clk.advance(30 * time.Minute)
	iv, err := tr.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, (30 * time.Minute).Milliseconds(), iv.Duration())
	assert.Equal(t, 1, tr.Pending())

	cur, err = st.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, cur)

	require.NoError(t, tr.Flush(ctx))
	assert.Equal(t, 0, tr.Pending())

	saved, err := st.Load(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, []interval.Interval{iv}, saved)
}

func TestTracker_StopWhenIdle(t *testing.T) {
	tr, _, _ := newTestTracker(t, store.BackendJSON, noon())
	_, err := tr.Stop(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestTracker_StartRequiresLabel(t *testing.T) {
	tr, _, _ := newTestTracker(t, store.BackendJSON, noon())
	err := tr.Start(context.Background(), nil)
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)
}

func TestTracker_SwitchWorkspaceClosesPrevious(t *testing.T) {
	tr, _, clk := newTestTracker(t, store.BackendJSON, noon())
	ctx := context.Background()

	require.NoError(t, tr.Start(ctx, interval.NewLabels("api")))
	clk.advance(10 * time.Minute)
	require.NoError(t, tr.Start(ctx, interval.NewLabels("api")), "same workspace is a no-op")
	assert.Equal(t, 0, tr.Pending())

	require.NoError(t, tr.Start(ctx, interval.NewLabels("web")))
	assert.Equal(t, 1, tr.Pending())
	assert.Equal(t, interval.NewLabels("web"), tr.Current().Labels)
}

func TestTracker_ZeroLengthStopIsDiscarded(t *testing.T) {
	tr, _, _ := newTestTracker(t, store.BackendJSON, noon())
	ctx := context.Background()

	require.NoError(t, tr.Start(ctx, interval.NewLabels("api")))
	iv, err := tr.Stop(ctx)
	require.NoError(t, err)
	assert.Zero(t, iv.Duration())
	assert.Equal(t, 0, tr.Pending())
}

func TestTracker_Toggle(t *testing.T) {
	tr, _, clk := newTestTracker(t, store.BackendSQLite, noon())
	ctx := context.Background()

	running, err := tr.Toggle(ctx, interval.NewLabels("api"))
	require.NoError(t, err)
	assert.True(t, running)

	clk.advance(time.Minute)
	running, err = tr.Toggle(ctx, interval.NewLabels("api"))
	require.NoError(t, err)
	assert.False(t, running)
	assert.Equal(t, 1, tr.Pending())
}

func TestTracker_FlushConsolidatesAgainstStore(t *testing.T) {
	tr, st, clk := newTestTracker(t, store.BackendSQLite, noon())
	ctx := context.Background()

	// Another process wrote an overlapping interval in the meantime.
	base := noon().UnixMilli()
	minute := time.Minute.Milliseconds()
	require.NoError(t, st.Save(ctx, 2024, []interval.Interval{
		{Start: base + 10*minute, End: base + 40*minute, Labels: interval.NewLabels("web")},
	}))

	require.NoError(t, tr.Start(ctx, interval.NewLabels("api")))
	clk.advance(20 * time.Minute)
	_, err := tr.Stop(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.Flush(ctx))

	want := []interval.Interval{
		{Start: base, End: base + 10*minute, Labels: interval.NewLabels("api")},
		{Start: base + 10*minute, End: base + 20*minute, Labels: interval.NewLabels("api", "web")},
		{Start: base + 20*minute, End: base + 40*minute, Labels: interval.NewLabels("web")},
	}
	saved, err := st.Load(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, want, saved)
	assert.Equal(t, want, tr.Saved())
}

func TestTracker_FlushSplitsAcrossYears(t *testing.T) {
	nye := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	tr, st, clk := newTestTracker(t, store.BackendJSON, nye)
	ctx := context.Background()

	require.NoError(t, tr.Start(ctx, interval.NewLabels("party")))
	clk.advance(2 * time.Hour)
	_, err := tr.Stop(ctx)
	require.NoError(t, err)
	require.NoError(t, tr.Flush(ctx))

	old, err := st.Load(ctx, 2023)
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, time.Hour.Milliseconds(), old[0].Duration())

	fresh, err := st.Load(ctx, 2024)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, time.Hour.Milliseconds(), fresh[0].Duration())

	assert.Equal(t, 2024, tr.Year(), "tracker rolls over to the new year")
	assert.Len(t, tr.Saved(), 1)
}

func TestTracker_OpenConsolidatesStoredHistory(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(store.Options{Backend: store.BackendJSON, Dir: dir})
	require.NoError(t, err)
	ctx := context.Background()

	base := noon().UnixMilli()
	require.NoError(t, st.Save(ctx, 2024, []interval.Interval{
		{Start: base, End: base + 100, Labels: interval.NewLabels("a")},
		{Start: base + 100, End: base + 200, Labels: interval.NewLabels("a")},
	}))

	clk := &clock{t: noon()}
	tr, err := Open(ctx, st, Options{Now: clk.now, Loc: time.UTC})
	require.NoError(t, err)

	want := []interval.Interval{{Start: base, End: base + 200, Labels: interval.NewLabels("a")}}
	assert.Equal(t, want, tr.Saved())
	saved, err := st.Load(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, want, saved)
}

func TestTracker_CurrentSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	clk := &clock{t: noon()}

	st, err := store.Open(store.Options{Backend: store.BackendJSON, Dir: dir})
	require.NoError(t, err)
	first, err := Open(ctx, st, Options{Now: clk.now, Loc: time.UTC})
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx, interval.NewLabels("api")))

	clk.advance(15 * time.Minute)
	second, err := Open(ctx, st, Options{Now: clk.now, Loc: time.UTC})
	require.NoError(t, err)
	require.True(t, second.Running())
	iv, err := second.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, (15 * time.Minute).Milliseconds(), iv.Duration())
}

func TestTracker_AllMaterializesCurrent(t *testing.T) {
	tr, _, clk := newTestTracker(t, store.BackendJSON, noon())
	ctx := context.Background()

	require.NoError(t, tr.Start(ctx, interval.NewLabels("api")))
	clk.advance(5 * time.Minute)
	all := tr.All()
	require.Len(t, all, 1)
	assert.Equal(t, clk.now().UnixMilli(), all[0].End)
	assert.Empty(t, tr.Saved(), "reading must not persist the open interval")
}

func TestTracker_EditOperations(t *testing.T) {
	tr, st, _ := newTestTracker(t, store.BackendJSON, noon())
	ctx := context.Background()
	base := noon().UnixMilli()

	require.NoError(t, tr.Replace(ctx, []interval.Interval{
		{Start: base, End: base + 100, Labels: interval.NewLabels("a")},
		{Start: base + 200, End: base + 300, Labels: interval.NewLabels("b")},
	}))
	require.Len(t, tr.Saved(), 2)

	require.NoError(t, tr.Update(ctx, 1, interval.Interval{Start: base + 100, End: base + 300, Labels: interval.NewLabels("a")}))
	assert.Equal(t, []interval.Interval{{Start: base, End: base + 300, Labels: interval.NewLabels("a")}}, tr.Saved())

	err := tr.Update(ctx, 0, interval.Interval{Start: base + 10, End: base, Labels: interval.NewLabels("a")})
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)

	assert.ErrorIs(t, tr.Delete(ctx, 3), ErrIndexOutOfRange)
	require.NoError(t, tr.Delete(ctx, 0))
	assert.Empty(t, tr.Saved())

	saved, err := st.Load(ctx, 2024)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestTracker_ClearRestartsRunningInterval(t *testing.T) {
	tr, _, clk := newTestTracker(t, store.BackendJSON, noon())
	ctx := context.Background()

	require.NoError(t, tr.Start(ctx, interval.NewLabels("api")))
	clk.advance(time.Hour)
	require.NoError(t, tr.Clear(ctx))

	c := tr.Counters("api")
	assert.True(t, c.Running)
	assert.Zero(t, c.Total)
	assert.Equal(t, clk.now().UnixMilli(), tr.Current().Start)
}

func TestTracker_LabelWithSemicolonSurvivesReload(t *testing.T) {
	for _, backend := range []string{store.BackendJSON, store.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			tr, _, clk := newTestTracker(t, backend, noon())
			ctx := context.Background()

			require.NoError(t, tr.Start(ctx, interval.NewLabels("proj;v2")))
			clk.advance(time.Hour)
			_, err := tr.Stop(ctx)
			require.NoError(t, err)
			require.NoError(t, tr.Flush(ctx))
			require.NoError(t, tr.Reload(ctx))

			saved := tr.Saved()
			require.Len(t, saved, 1)
			assert.Equal(t, interval.Labels{"proj;v2"}, saved[0].Labels)
			assert.Equal(t, time.Hour.Milliseconds(), tr.Counters("proj;v2").Workspace)
		})
	}
}
