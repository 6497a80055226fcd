package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRootCmd resets the package-level flag state and returns a root
// command wired to a capture buffer.
func newTestRootCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	debugMode = false
	dataDirFlag = ""
	configDir = "."

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	return cmd, buf
}

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command
	cmd, buf := newTestRootCmd(t)
	cmd.SetArgs([]string{"--help"})

	// When: executing with --help
	err := cmd.Execute()

	// Then: usage lists the core commands
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "polisearch")
	assert.Contains(t, output, "index")
	assert.Contains(t, output, "search")
	assert.Contains(t, output, "ask")
	assert.Contains(t, output, "status")
}

func TestRootCmd_VersionFlag(t *testing.T) {
	// Given: a root command
	cmd, buf := newTestRootCmd(t)
	cmd.SetArgs([]string{"--version"})

	// When: executing with --version
	err := cmd.Execute()

	// Then: the version template is used
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "polisearch version")
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	// Given: a root command
	cmd, _ := newTestRootCmd(t)
	cmd.SetArgs([]string{"definitely-not-a-command"})

	// When: executing an unknown subcommand
	err := cmd.Execute()

	// Then: it errors
	assert.Error(t, err)
}
