package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"calls-dashboard/connectors/session"
	dc "calls-dashboard/domain/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path, sheet, caller string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Call Date", "Caller name", "Customer (Caller)", "Justified? (24/7)"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"2024-04-02", caller, "NewCold | WHS Tacoma", "No"}))
	require.NoError(t, f.SaveAs(path))
}

func TestBackfillPicksNewest(t *testing.T) {
	dir := t.TempDir()
	cfg := dc.Default().Ingest
	old := filepath.Join(dir, "old.xlsx")
	fresh := filepath.Join(dir, "fresh.xlsx")
	writeWorkbook(t, old, cfg.Sheet, "old")
	writeWorkbook(t, fresh, cfg.Sheet, "fresh")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	store := session.NewStore(0, 0)
	require.NoError(t, New(dir, cfg, store).Backfill())

	tbl, ok := store.Get(session.Inbox)
	require.True(t, ok)
	assert.Equal(t, fresh, tbl.Source)
	assert.Equal(t, "fresh", tbl.Records[0].CallerName)
}

func TestBackfillEmptyDir(t *testing.T) {
	store := session.NewStore(0, 0)
	require.NoError(t, New(t.TempDir(), dc.Default().Ingest, store).Backfill())
	assert.Zero(t, store.Len())
}

func TestIngestFailureKeepsPreviousTable(t *testing.T) {
	dir := t.TempDir()
	cfg := dc.Default().Ingest
	good := filepath.Join(dir, "good.xlsx")
	bad := filepath.Join(dir, "bad.xlsx")
	writeWorkbook(t, good, cfg.Sheet, "keep")
	writeWorkbook(t, bad, "Sheet2", "lost")

	store := session.NewStore(0, 0)
	w := New(dir, cfg, store)
	require.True(t, w.Ingest(good))
	assert.False(t, w.Ingest(bad))

	tbl, ok := store.Get(session.Inbox)
	require.True(t, ok)
	assert.Equal(t, "keep", tbl.Records[0].CallerName)
}

func TestStartIngestsNewFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := dc.Default().Ingest
	store := session.NewStore(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, New(dir, cfg, store).Start(ctx))

	writeWorkbook(t, filepath.Join(dir, "upload.xlsx"), cfg.Sheet, "dropped")

	assert.Eventually(t, func() bool {
		tbl, ok := store.Get(session.Inbox)
		return ok && len(tbl.Records) == 1 && tbl.Records[0].CallerName == "dropped"
	}, 5*time.Second, 20*time.Millisecond)
}

func TestIsWorkbook(t *testing.T) {
	assert.True(t, isWorkbook("/u/calls.xlsx"))
	assert.True(t, isWorkbook("/u/CALLS.XLSX"))
	assert.False(t, isWorkbook("/u/~$calls.xlsx"))
	assert.False(t, isWorkbook("/u/calls.csv"))
}
