package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/shopledger/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add payments table", "add_payments_table"},
		{"Add-Payments-Table", "add_payments_table"},
		{"ADD_PAYMENTS_TABLE", "add_payments_table"},
		{"add__payments__table", "add_payments_table"},
		{"Add Index 123", "add_index_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create ledger tables", "initial schema")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_ledger_tables.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_ledger_tables.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "add payment notes index", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	upContent, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(upContent), "create ledger tables")
	assert.Contains(t, string(upContent), "initial schema")

	downContent, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(downContent), "Rollback")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "nested", "migrations")

	_, err := CreateMigration(nested, "test", "test migration")
	require.NoError(t, err)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_index.up.sql":      {Data: []byte("--")},
		"000002_add_index.down.sql":    {Data: []byte("--")},
		"000001_init_schema.up.sql":    {Data: []byte("--")},
		"000001_init_schema.down.sql":  {Data: []byte("--")},
		"000010_add_notes.up.sql":      {Data: []byte("--")},
		"README.md":                    {Data: []byte("docs")},
		"embed.go":                     {Data: []byte("package migrations")},
		"notaversion_thing.up.sql":     {Data: []byte("--")},
		"subdir.up.sql/placeholder.go": {Data: []byte("--")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, uint(1), got[0].Version)
	assert.Equal(t, "init_schema", got[0].Name)
	assert.Equal(t, uint(2), got[1].Version)
	assert.Equal(t, uint(10), got[2].Version)
	assert.Equal(t, "000010_add_notes", got[2].BaseName())

	err = CheckPairs(got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000010_add_notes: missing .down.sql")
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS("/nonexistent/path/to/migrations"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, uint(1), got[0].Version)
	assert.NoError(t, CheckPairs(got))
}
