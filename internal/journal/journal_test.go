package journal_test

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapkeep/printworks/internal/journal"
)

func openJournal(t *testing.T) *journal.Journal {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"), log)
	require.NoError(t, err)
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openJournal(t)

	j.Record("order-1", "uploaded", "transient", errors.New("s3 unavailable"))
	j.Record("order-2", "delivered", "channel", errors.New("530 login incorrect"))

	recs, err := j.Recent(10)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Newest first.
	assert.Equal(t, "order-2", recs[0].OrderID)
	assert.Equal(t, "delivered", recs[0].Stage)
	assert.Equal(t, "channel", recs[0].Kind)
	assert.Contains(t, recs[0].Error, "530")
	assert.Equal(t, "order-1", recs[1].OrderID)
}

func TestRecentHonorsLimit(t *testing.T) {
	j := openJournal(t)

	for i := 0; i < 5; i++ {
		j.Record("order", "received", "transient", errors.New("boom"))
	}

	recs, err := j.Recent(3)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}
