package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]*cobra.Command)
	for _, c := range root.Commands() {
		names[c.Name()] = c
	}
	require.Contains(t, names, "run")
	require.Contains(t, names, "resolve")
	require.Contains(t, names, "node")
	require.Contains(t, names, "version")

	var subs []string
	for _, c := range names["node"].Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"start", "stop", "restart", "status", "logs"}, subs)

	assert.Equal(t, "true", names["run"].Annotations[longRunningAnnotation])
	assert.NotNil(t, names["run"].Flags().Lookup("once"))
	assert.NotNil(t, names["run"].Flags().Lookup("chain-url"))
	assert.NotNil(t, names["run"].Flags().Lookup("detector"))
}

func TestVersionCmd_SkipsAppInit(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "rtt version dev")
}

func TestTestFileArg(t *testing.T) {
	assert.Equal(t, "", testFileArg(nil))
	assert.Equal(t, "token", testFileArg([]string{"token"}))
}
