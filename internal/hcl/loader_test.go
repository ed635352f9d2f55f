package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/heatgrid/internal/config"
	"github.com/vk/heatgrid/internal/sources"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load_FullFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.hcl", `
grid {
  size       = 12
  energy     = 2.5
  iterations = 40
  initial_temperature = x + y * n
}

mesh {
  px         = 3
  py         = 2
  periodic_x = true
}

source {
  x = 1
  y = n - 1
}

output {
  every = 10
  sink  = "http"
  url   = "http://localhost:9999/frames"
}
`)

	model, conv, err := NewLoader().Load(context.Background(), config.Default(), path)
	require.NoError(t, err)
	require.NotNil(t, conv)

	assert.Equal(t, 12, model.Grid.Size)
	assert.Equal(t, 2.5, model.Grid.Energy)
	assert.Equal(t, 40, model.Grid.Iterations)
	assert.Equal(t, config.Mesh{PX: 3, PY: 2, PeriodicX: true}, model.Mesh)
	assert.Equal(t, 10, model.Output.Every)
	assert.Equal(t, config.SinkHTTP, model.Output.Sink)
	assert.Equal(t, "http://localhost:9999/frames", model.Output.URL)
	assert.Equal(t, "frame", model.Output.Event, "unset attributes keep the base value")

	points, err := model.ResolveSources(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, []sources.Point{{X: 1, Y: 11}}, points)

	field, err := model.InitialField(context.Background(), conv)
	require.NoError(t, err)
	require.NotNil(t, field)
	assert.Equal(t, 2.0+3*12, field(2, 3))
}

func TestLoader_Load_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/base.hcl", `
grid {
  size       = 8
  iterations = 5
}
source {
  x = 2
  y = 2
}
`)
	writeFile(t, dir, "b/override.hcl", `
grid {
  iterations = 9
}
source {
  x = 3
  y = 4
}
`)
	writeFile(t, dir, "b/notes.txt", "not a run file")

	model, conv, err := NewLoader().Load(context.Background(), config.Default(),
		filepath.Join(dir, "a"), filepath.Join(dir, "b"))
	require.NoError(t, err)

	assert.Equal(t, 8, model.Grid.Size)
	assert.Equal(t, 9, model.Grid.Iterations)

	points, err := model.ResolveSources(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, []sources.Point{{X: 2, Y: 2}, {X: 3, Y: 4}}, points, "sources accumulate across files")
}

func TestLoader_Load_KeepsDefaultSources(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "run.hcl", `
grid {
  size = 9
}
`)
	base := config.Default()
	model, conv, err := NewLoader().Load(context.Background(), base, path)
	require.NoError(t, err)

	points, err := model.ResolveSources(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, sources.Defaults(9), points)
	assert.Equal(t, 0, base.Grid.Size, "base model is not modified")
}

func TestLoader_Load_MissingPathIsSkipped(t *testing.T) {
	model, _, err := NewLoader().Load(context.Background(), config.Default(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Mesh, model.Mesh)
}

func TestLoader_Load_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "syntax error", content: `grid {`},
		{name: "unknown block", content: `simulation {}`},
		{name: "unknown attribute", content: "grid {\n  colour = 1\n}"},
		{name: "duplicate grid", content: "grid {}\ngrid {}"},
		{name: "source missing y", content: "source {\n  x = 1\n}"},
		{name: "source missing x", content: "source {\n  y = 1\n}"},
		{name: "source unknown attribute", content: "source {\n  x = 1\n  y = 1\n  z = 1\n}"},
		{name: "source uses x", content: "source {\n  x = x\n  y = 1\n}"},
		{name: "initial uses unknown variable", content: "grid {\n  initial_temperature = t\n}"},
		{name: "wrong type", content: "mesh {\n  px = \"two\"\n}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "run.hcl", tc.content)
			_, _, err := NewLoader().Load(context.Background(), config.Default(), path)
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}
