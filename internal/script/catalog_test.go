package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
scripts:
  - id: greet
    source: "Hello {{name}}"
  - id: body
    lang: mustache
    source: '{"name":"{{name}}"}'
    options:
      content_type: application/json
`

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
	assert.Equal(t, []string{"body", "greet"}, catalog.IDs())

	body, err := catalog.Get("body")
	require.NoError(t, err)
	assert.Equal(t, "mustache", body.Lang)
	assert.Equal(t, "application/json", body.Options["content_type"])

	_, err = catalog.Get("nope")
	assert.True(t, errors.Is(err, ErrScriptNotFound))
}

func TestCatalogErrors(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("scripts: ["))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("scripts:\n  - source: x\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("scripts:\n  - id: a\n"))
	assert.Error(t, err)

	_, err = NewCatalog(Script{ID: "a", Source: "x"}, Script{ID: "a", Source: "y"})
	assert.Error(t, err)
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.IDs())
	_, err := c.Get("x")
	assert.True(t, errors.Is(err, ErrScriptNotFound))
}
