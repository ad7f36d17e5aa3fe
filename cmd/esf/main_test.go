// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/esf/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.Execute()

	return out.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"layer.yaml": `units:
  - {id: 1, neighbors: [2]}
  - {id: 2, neighbors: [1, 3]}
  - {id: 3, neighbors: [2, 4]}
  - {id: 4, neighbors: [3, 5]}
  - {id: 5, neighbors: [4, 6]}
  - {id: 6, neighbors: [5]}
`,
		"a.csv": "banner\nid,x\n1,1\n2,3\n3,2\n4,5\n5,4\n6,6\n",
		"b.csv": "banner\nid,y\n1,2\n2,5\n3,4\n4,9\n5,9\n6,12\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	c := config.Default()
	c.Data.Tables = []config.Source{{Path: "a.csv", SkipRows: 1}, {Path: "b.csv", SkipRows: 1}}
	c.Data.Layer = "layer.yaml"
	c.Weights.Contiguity = "listed"
	c.Model.Response = "y"
	c.Model.Predictors = []string{"x"}
	path := filepath.Join(dir, "esf.yaml")
	require.NoError(t, config.Save(c, path))

	return path
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "esf.yaml")
	out, err := execute(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = execute(t, "init-config", path)
	require.Error(t, err)
	_, err = execute(t, "init-config", "--force", path)
	require.NoError(t, err)

	c, err := config.NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Selection, c.Selection)
}

func TestRunJSON(t *testing.T) {
	cfg := writeProject(t)
	out, err := execute(t, "run", "--config", cfg, "--format", "json", "--tolerance", "5")
	require.NoError(t, err)

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "y", rep["response"])
	assert.Equal(t, float64(6), rep["units"])
	assert.Equal(t, []any{}, rep["accepted"])
}

func TestMoranAndEigen(t *testing.T) {
	cfg := writeProject(t)
	out, err := execute(t, "moran", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Moran's I")

	out, err = execute(t, "eigen", "--config", cfg, "--loadings")
	require.NoError(t, err)
	assert.Contains(t, out, "rank")
}
