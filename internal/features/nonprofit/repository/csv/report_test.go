package csv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveEINs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "valid_eins.csv")

	require.NoError(t, NewReportRepository().SaveEINs(path, []string{"11-1111111", "987654321"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "11-1111111\n987654321\n", string(b))
}

func TestSaveEINs_EmptyListTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid_eins.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	require.NoError(t, NewReportRepository().SaveEINs(path, nil))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, b)
}
