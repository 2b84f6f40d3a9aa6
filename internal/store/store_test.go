package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/worktime/internal/interval"
)

func openTestStore(t *testing.T, backend string) Store {
	t.Helper()
	s, err := Open(Options{Backend: backend, Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, backend := range []string{BackendJSON, BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			fn(t, openTestStore(t, backend))
		})
	}
}

func ms(t *testing.T, s string) int64 {
	t.Helper()
	d, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return d.UnixMilli()
}

func TestStore_SaveAndLoad(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		ivs := []interval.Interval{
			{Start: ms(t, "2024-05-02 10:00"), End: ms(t, "2024-05-02 11:00"), Labels: interval.NewLabels("web")},
			{Start: ms(t, "2024-05-01 09:00"), End: ms(t, "2024-05-01 09:30"), Labels: interval.NewLabels("api", "web")},
		}
		require.NoError(t, s.Save(ctx, 2024, ivs))

		got, err := s.Load(ctx, 2024)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, ivs[1].Start, got[0].Start, "stored sorted by start")
		assert.Equal(t, "api; web", got[0].Labels.String())
		assert.Equal(t, ivs[0], got[1])

		empty, err := s.Load(ctx, 2023)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestStore_SaveReplacesYear(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first := []interval.Interval{{Start: ms(t, "2024-01-02 10:00"), End: ms(t, "2024-01-02 11:00"), Labels: interval.NewLabels("a")}}
		second := []interval.Interval{{Start: ms(t, "2024-02-02 10:00"), End: ms(t, "2024-02-02 10:05"), Labels: interval.NewLabels("b")}}
		require.NoError(t, s.Save(ctx, 2024, first))
		require.NoError(t, s.Save(ctx, 2024, second))

		got, err := s.Load(ctx, 2024)
		require.NoError(t, err)
		assert.Equal(t, second, got)
	})
}

func TestStore_Years(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		for _, y := range []int{2022, 2024, 2023} {
			start, _ := YearBounds(y)
			require.NoError(t, s.Save(ctx, y, []interval.Interval{{Start: start, End: start + 1000, Labels: interval.NewLabels("x")}}))
		}
		years, err := s.Years(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int{2024, 2023, 2022}, years)
	})
}

func TestStore_CurrentRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		cur, err := s.LoadCurrent(ctx)
		require.NoError(t, err)
		assert.Nil(t, cur)

		open := &interval.Open{Start: 1_700_000_000_000, Labels: interval.NewLabels("api")}
		require.NoError(t, s.SaveCurrent(ctx, open))

		cur, err = s.LoadCurrent(ctx)
		require.NoError(t, err)
		require.NotNil(t, cur)
		assert.Equal(t, *open, *cur)

		require.NoError(t, s.SaveCurrent(ctx, nil))
		cur, err = s.LoadCurrent(ctx)
		require.NoError(t, err)
		assert.Nil(t, cur)
	})
}

func TestJSONFiles_CorruptShardIsMovedAside(t *testing.T) {
	s := openTestStore(t, BackendJSON)
	path := s.Location(2024)
	require.NoError(t, os.WriteFile(path, []byte(`[{"start": 1, "end": `), 0o600))

	got, err := s.Load(context.Background(), 2024)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt shard should be renamed")
	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	years, err := s.Years(context.Background())
	require.NoError(t, err)
	assert.Empty(t, years)
}

func TestJSONFiles_DropsInvalidRecords(t *testing.T) {
	s := openTestStore(t, BackendJSON)
	data := `[
		{"start": 100, "end": 200, "workspace": "api"},
		{"start": 300, "end": 250, "workspace": "api"},
		{"start": 400, "end": 500, "workspace": ""},
		{"start": 600, "end": null, "workspace": "api"},
		{"start": 700, "end": 800, "workspace": "api;web"}
	]`
	require.NoError(t, os.WriteFile(s.Location(1970), []byte(data), 0o600))

	got, err := s.Load(context.Background(), 1970)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(100), got[0].Start)
	assert.Equal(t, interval.NewLabels("api", "web"), got[1].Labels)
}

func TestJSONFiles_FileFormat(t *testing.T) {
	s := openTestStore(t, BackendJSON)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, 1970, []interval.Interval{{Start: 5, End: 10, Labels: interval.NewLabels("web", "api")}}))
	require.NoError(t, s.SaveCurrent(ctx, &interval.Open{Start: 20, Labels: interval.NewLabels("web")}))

	assert.Equal(t, ".time-tracker-1970.json", filepath.Base(s.Location(1970)))
	data, err := os.ReadFile(s.Location(1970))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"start":5,"end":10,"workspace":"api; web"}]`, string(data))

	data, err = os.ReadFile(filepath.Join(s.Dir(), currentFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":20,"end":null,"workspace":"web"}`, string(data))
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(Options{Backend: "postgres", Dir: t.TempDir()})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestShardByYear(t *testing.T) {
	_, end2023 := YearBounds(2023)
	ivs := []interval.Interval{
		{Start: end2023 - 1000, End: end2023 + 500, Labels: interval.NewLabels("nye")},
		{Start: end2023 + 1000, End: end2023 + 2000, Labels: interval.NewLabels("jan")},
	}
	shards := ShardByYear(ivs)
	require.Len(t, shards, 2)
	require.Len(t, shards[2023], 1)
	assert.Equal(t, int64(1000), shards[2023][0].Duration())
	require.Len(t, shards[2024], 2)
	assert.Equal(t, end2023, shards[2024][0].Start)
	assert.Equal(t, int64(500), shards[2024][0].Duration())

	assert.Equal(t, 2024, YearOf(end2023))
	assert.Equal(t, 2023, YearOf(end2023-1))
}

func TestWithLock_RecordsOwner(t *testing.T) {
	s := openTestStore(t, BackendJSON)
	ran := false
	require.NoError(t, s.WithLock(context.Background(), func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)

	owner, err := Owner(s.Dir())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(owner, "owner="+ProcessOwner()))
}
