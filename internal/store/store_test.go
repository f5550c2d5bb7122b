package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wttnguyen/draftolio/internal/drafts"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := testStore(t)

	d := &drafts.Draft{
		ID:           "01JX0000000000000000000000",
		Name:         "Scrim block",
		BlueTeamName: "Team Alpha",
		RedTeamName:  "Team Beta",
		Mode:         "TOURNAMENT",
		Status:       drafts.StatusCreated,
		SpectateURL:  "http://localhost:4200/spectate/abc",
	}
	require.NoError(t, s.Record(d))

	got, err := s.Get(d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Team Alpha", got.BlueTeamName)
	assert.Equal(t, "Team Beta", got.RedTeamName)
	assert.Equal(t, "CREATED", got.Status)
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := testStore(t)

	got, err := s.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecordReplacesExisting(t *testing.T) {
	s := testStore(t)

	d := &drafts.Draft{ID: "draft-1", BlueTeamName: "Blue", RedTeamName: "Red", Mode: "FEARLESS", Status: drafts.StatusCreated}
	require.NoError(t, s.Record(d))

	d.Status = drafts.StatusInProgress
	require.NoError(t, s.Record(d))

	got, err := s.Get("draft-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "IN_PROGRESS", got.Status)

	recent, err := s.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestRecentOrdersByViewedAt(t *testing.T) {
	s := testStore(t)

	for i, id := range []string{"draft-a", "draft-b", "draft-c"} {
		d := &drafts.Draft{ID: id, BlueTeamName: "Blue", RedTeamName: "Red", Mode: "TOURNAMENT", Status: drafts.StatusCreated}
		require.NoError(t, s.Record(d))
		// Distinct timestamps so ordering is deterministic.
		require.NoError(t, s.db.Model(&CachedDraft{}).Where("id = ?", id).
			Update("viewed_at", time.Now().Add(time.Duration(i)*time.Second)).Error)
	}

	recent, err := s.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "draft-c", recent[0].ID)
	assert.Equal(t, "draft-b", recent[1].ID)
}
