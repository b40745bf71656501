package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yekaditya11/shindler-oicc-sub001/internal/models"
)

func TestCatalog(t *testing.T) {
	t.Run("Expect: Lookup to return a registered definition", func(t *testing.T) {
		catalog, err := NewCatalog(DefaultDefinitions()...)
		require.NoError(t, err)

		def, err := catalog.Lookup("srs")
		require.NoError(t, err)
		assert.Equal(t, "srs", def.Name)
		assert.Len(t, def.ExpectedColumns, 41)
		assert.False(t, def.IsAugmented)
	})

	t.Run("Expect: Lookup to fail with ErrSchemaNotFound for unknown names", func(t *testing.T) {
		catalog, err := NewCatalog(DefaultDefinitions()...)
		require.NoError(t, err)

		_, err = catalog.Lookup("nope")
		assert.True(t, errors.Is(err, ErrSchemaNotFound))
	})

	t.Run("Expect: Register to publish a new schema at runtime", func(t *testing.T) {
		catalog, err := NewCatalog(DefaultDefinitions()...)
		require.NoError(t, err)

		err = catalog.Register("site_audit", []string{"Audit Id", "Site Name", "Audit Date"}, false)
		require.NoError(t, err)

		def, err := catalog.Lookup("site_audit")
		require.NoError(t, err)
		assert.Equal(t, []string{"Audit Id", "Site Name", "Audit Date"}, def.ExpectedColumns)
	})

	t.Run("Expect: Register to fail with ErrDuplicateSchema on an existing name", func(t *testing.T) {
		catalog, err := NewCatalog(DefaultDefinitions()...)
		require.NoError(t, err)

		err = catalog.Register("srs", []string{"Event Id"}, false)
		assert.True(t, errors.Is(err, ErrDuplicateSchema))
	})

	t.Run("Expect: All to return every definition", func(t *testing.T) {
		catalog, err := NewCatalog(DefaultDefinitions()...)
		require.NoError(t, err)

		assert.Len(t, catalog.All(), 4)
	})

	t.Run("Expect: NewCatalog to reject duplicate definitions", func(t *testing.T) {
		_, err := NewCatalog(
			models.SchemaDefinition{Name: "a", ExpectedColumns: []string{"x"}},
			models.SchemaDefinition{Name: "a", ExpectedColumns: []string{"y"}},
		)
		assert.Error(t, err)
	})
}
