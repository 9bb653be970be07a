package wizard

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/locatrova/locatrova-admin/internal/api"
	"github.com/locatrova/locatrova-admin/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	return st
}

func TestDraftRoundTrip(t *testing.T) {
	st := newTestStore(t)
	drafts := NewDraftStore(st, time.Hour) // never fires on its own

	f := NewFormData().WithAddedRoom(api.Room{Name: "Sala A", Capacity: 12, HourlyPrice: 25})
	name := "Studio Verde"
	f = f.Apply(Patch{Name: &name})

	drafts.Schedule(Snapshot{Data: f, Step: 3, Timestamp: 1700000000})
	require.True(t, drafts.Dirty())
	require.NoError(t, drafts.Flush())
	require.False(t, drafts.Dirty())

	snap, ok := drafts.Load()
	require.True(t, ok)
	require.Equal(t, 3, snap.Step)
	require.Equal(t, "Studio Verde", snap.Data.Name)
	require.Len(t, snap.Data.Rooms, 1)
	require.Len(t, snap.Data.Availability, DaysPerWeek)
}

func TestDraftDebounceFiresAfterQuietPeriod(t *testing.T) {
	st := newTestStore(t)
	drafts := NewDraftStore(st, 30*time.Millisecond)

	drafts.Schedule(Snapshot{Step: 1})
	_, ok := drafts.Load()
	require.False(t, ok, "nothing persisted before the quiet period elapses")

	// Each Schedule re-arms the timer, so a burst of edits produces one
	// write carrying the last snapshot.
	drafts.Schedule(Snapshot{Step: 2})

	require.Eventually(t, func() bool {
		snap, ok := drafts.Load()
		return ok && snap.Step == 2
	}, 2*time.Second, 10*time.Millisecond)
	require.False(t, drafts.Dirty())
}

func TestDraftClearRemovesPersistedState(t *testing.T) {
	st := newTestStore(t)
	drafts := NewDraftStore(st, time.Hour)

	drafts.Schedule(Snapshot{Step: 2})
	require.NoError(t, drafts.Flush())
	_, ok := drafts.Load()
	require.True(t, ok)

	require.NoError(t, drafts.Clear())
	require.False(t, drafts.Dirty())
	_, ok = drafts.Load()
	require.False(t, ok)

	// Flush after Clear is a no-op; the pending snapshot was dropped.
	require.NoError(t, drafts.Flush())
	_, ok = drafts.Load()
	require.False(t, ok)
}

func TestDraftCorruptSnapshotTreatedAsAbsent(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Set("locatrova.locationDraft", "{not json"))

	drafts := NewDraftStore(st, time.Hour)
	_, ok := drafts.Load()
	require.False(t, ok)
}
