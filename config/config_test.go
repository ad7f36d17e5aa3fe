// SPDX-License-Identifier: MIT

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/esf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlCfg = `
data:
  tables:
    - path: a.csv
      id_column: code
      skip_rows: 1
      drop_columns: [name]
    - path: /abs/b.csv
  layer: layer.yaml
model:
  response: donors
  predictors: [income, age]
selection:
  significance: 0.05
`

func TestLoad_FileEnvDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "esf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCfg), 0o644))
	t.Setenv("ESF_SELECTION_TOLERANCE", "0.25")

	c, err := config.NewLoader(nil).Load(path)
	require.NoError(t, err)

	require.Len(t, c.Data.Tables, 2)
	assert.Equal(t, filepath.Join(dir, "a.csv"), c.Data.Tables[0].Path)
	assert.Equal(t, "code", c.Data.Tables[0].IDColumn)
	assert.Equal(t, []string{"name"}, c.Data.Tables[0].DropColumns)
	assert.Equal(t, "/abs/b.csv", c.Data.Tables[1].Path)
	assert.Equal(t, filepath.Join(dir, "layer.yaml"), c.Data.Layer)
	assert.Equal(t, []string{"income", "age"}, c.Model.Predictors)

	assert.Equal(t, 0.05, c.Selection.Significance) // file
	assert.Equal(t, 0.25, c.Selection.Tolerance)    // env
	assert.True(t, c.Model.Intercept)               // default
	assert.Equal(t, "queen", c.Weights.Contiguity)
	assert.Equal(t, "W", c.Weights.Style)
	assert.True(t, c.MEM.PositiveOnly)
	assert.Equal(t, "text", c.Output.Format)
	require.NoError(t, c.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.NewLoader(nil).Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestSaveDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "esf.yaml")
	def := config.Default()
	require.NoError(t, def.Validate())
	require.NoError(t, config.Save(def, path))

	got, err := config.NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, def.Selection, got.Selection)
	assert.Equal(t, def.Model, got.Model)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "profiles.csv"), got.Data.Tables[0].Path)
}

func TestValidate(t *testing.T) {
	c := config.Default()
	c.Data.Tables = nil
	c.Model.Response = ""
	c.Selection.Significance = 0
	c.Output.Format = "xml"

	err := c.Validate()
	require.ErrorIs(t, err, config.ErrInvalid)
	for _, want := range []string{"data.tables", "model.response", "selection.significance", "output.format"} {
		assert.Contains(t, err.Error(), want)
	}
}
