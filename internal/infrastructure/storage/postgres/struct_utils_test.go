package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditColumns struct {
	CreatedAt string `db:"created_at"`
	Ignored   string `db:"-"`
}

type mockRow struct {
	auditColumns
	ID       string `db:"id"`
	Name     string `db:"name"`
	Untagged string
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id", "name"}, ExtractDBColumns[mockRow]())
	assert.Equal(t, []string{"created_at", "id", "name"}, ExtractDBColumns[*mockRow]())
	assert.Nil(t, ExtractDBColumns[int]())
}

func TestAliasedColumns(t *testing.T) {
	cols, err := AliasedColumns([]string{"id", "name"}, map[string]string{
		"name": "COALESCE(p.name, '')",
		"id":   "CAST(p.id AS TEXT)",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"CAST(p.id AS TEXT) AS id", "COALESCE(p.name, '') AS name"}, cols)
}

func TestAliasedColumns_Mismatch(t *testing.T) {
	_, err := AliasedColumns([]string{"id", "name"}, map[string]string{"id": "p.id"})
	assert.ErrorContains(t, err, `"name"`)

	_, err = AliasedColumns([]string{"id"}, map[string]string{"id": "p.id", "extra": "1"})
	assert.ErrorContains(t, err, `"extra"`)
}
