package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInit_CreatesProjectConfig(t *testing.T) {
	// Given: an empty project directory
	tmpDir := t.TempDir()

	cmd, buf := newTestRootCmd(t)
	cmd.SetArgs([]string{"-C", tmpDir, "config", "init"})

	// When: running config init
	err := cmd.Execute()

	// Then: polisearch.yaml exists and holds the template
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "created")

	data, err := os.ReadFile(filepath.Join(tmpDir, "polisearch.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "chunk:")
	assert.Contains(t, string(data), "vector_weight")
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	// Given: a directory that already has a project config
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "polisearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	cmd, _ := newTestRootCmd(t)
	cmd.SetArgs([]string{"-C", tmpDir, "config", "init"})

	// When: running config init without --force
	err := cmd.Execute()

	// Then: it refuses and leaves the file untouched
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestConfigInit_ForceOverwrites(t *testing.T) {
	// Given: a directory that already has a project config
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "polisearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	cmd, _ := newTestRootCmd(t)
	cmd.SetArgs([]string{"-C", tmpDir, "config", "init", "--force"})

	// When: running config init --force
	err := cmd.Execute()

	// Then: the template replaces the file
	require.NoError(t, err)
	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Contains(t, string(data), "chunk:")
}

func TestConfigShow_PrintsEffectiveConfig(t *testing.T) {
	// Given: a project directory with an override
	tmpDir := t.TempDir()
	override := "version: 1\nsearch:\n  top_k: 9\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "polisearch.yaml"), []byte(override), 0o644))

	cmd, buf := newTestRootCmd(t)
	cmd.SetArgs([]string{"-C", tmpDir, "config", "show"})

	// When: running config show
	err := cmd.Execute()

	// Then: the merged configuration reflects the override
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "top_k: 9")
	assert.Contains(t, output, "vector_weight")
}

func TestConfigPath_PrintsUserConfigPath(t *testing.T) {
	// Given: the config path command
	cmd, buf := newTestRootCmd(t)
	cmd.SetArgs([]string{"config", "path"})

	// When: running config path
	err := cmd.Execute()

	// Then: it prints a config.yaml path
	require.NoError(t, err)
	assert.Contains(t, buf.String(), filepath.Join("polisearch", "config.yaml"))
}
