package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peaceflow/peace/internal/itemspec"
	"github.com/peaceflow/peace/internal/workspace"
)

func TestFromPathResolvesAbsolute(t *testing.T) {
	dir := t.TempDir()
	root, err := workspace.FromPath(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, root.Path)
}

func TestFromPathRejectsFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notadir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := workspace.FromPath(file)
	require.Error(t, err)
}

func TestFromSentinelWalksUpward(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "peace.yaml"), []byte(""), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(cwd)) }()
	require.NoError(t, os.Chdir(nested))

	found, err := workspace.FromSentinel("peace.yaml")
	require.NoError(t, err)

	resolvedRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	resolvedFound, err := filepath.EvalSymlinks(found.Path)
	require.NoError(t, err)
	assert.Equal(t, resolvedRoot, resolvedFound)
}

func TestFromSentinelNotFoundFails(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { require.NoError(t, os.Chdir(cwd)) }()
	require.NoError(t, os.Chdir(dir))

	_, err = workspace.FromSentinel("nonexistent-sentinel-marker.yaml")
	require.Error(t, err)
}

func TestLayoutPaths(t *testing.T) {
	l := workspace.NewLayout(itemspec.AppName("myapp"))
	profile := itemspec.Profile("dev")
	flow := itemspec.FlowID("deploy")

	assert.Equal(t, filepath.Join(".peace", "myapp"), l.AppDir())
	assert.Equal(t, filepath.Join(".peace", "myapp", "workspace_params.yaml"), l.WorkspaceParamsPath())
	assert.Equal(t, filepath.Join(".peace", "myapp", "dev", "profile_params.yaml"), l.ProfileParamsPath(profile))
	assert.Equal(t, filepath.Join(".peace", "myapp", "dev", "deploy", "flow_params.yaml"), l.FlowParamsPath(profile, flow))
	assert.Equal(t, filepath.Join(".peace", "myapp", "dev", "deploy", "states_saved.yaml"), l.StatesSavedPath(profile, flow))
	assert.Equal(t, filepath.Join(".peace", "myapp", "dev", "deploy", "states_desired.yaml"), l.StatesDesiredPath(profile, flow))
}
