package duckdb

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapFS(names ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, n := range names {
		fsys["migrations/"+n] = &fstest.MapFile{Data: []byte("SELECT 1;")}
	}
	return fsys
}

func TestMigrationFiles_OrderedSequence(t *testing.T) {
	names, err := migrationFiles(mapFS(
		"0002_reconciliations.sql",
		"0001_core_ledger.sql",
		"0003_market_data.sql",
	))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0001_core_ledger.sql",
		"0002_reconciliations.sql",
		"0003_market_data.sql",
	}, names)
}

func TestMigrationFiles_RejectsGap(t *testing.T) {
	_, err := migrationFiles(mapFS(
		"0001_core_ledger.sql",
		"0003_market_data.sql",
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence gap")
}

func TestMigrationFiles_RejectsBadName(t *testing.T) {
	_, err := migrationFiles(mapFS(
		"0001_core_ledger.sql",
		"002_short_number.sql",
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestMigrationFiles_RejectsDuplicateNumber(t *testing.T) {
	_, err := migrationFiles(mapFS(
		"0001_core_ledger.sql",
		"0001_core_ledger_again.sql",
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestMigrationFiles_EmbeddedSetIsValid(t *testing.T) {
	names, err := migrationFiles(migrationFS)
	require.NoError(t, err)
	assert.NotEmpty(t, names)
}
