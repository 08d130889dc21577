package main

import (
	"bytes"
	"testing"

	"github.com/bissquit/firemap/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "firemap "+version.Version)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "fetch", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestServeCmd_InvalidConfig(t *testing.T) {
	t.Setenv("FIREMAP_LOG__LEVEL", "verbose")

	root := newRootCmd()
	root.SetArgs([]string{"serve"})

	assert.Error(t, root.Execute())
}
