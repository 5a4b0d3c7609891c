package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/knowledge-store/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag of cmd and its children back to its default so
// one Execute does not leak into the next
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// newCLI isolates config lookup and returns an empty knowledge root
func newCLI(t *testing.T) string {
	t.Helper()
	home := testutil.CreateTempDir(t)
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("KNOWLEDGE_ROOT", "")
	t.Setenv("KNOWLEDGE_SESSION", "")
	return testutil.CreateTempDir(t)
}

// run executes the CLI against root and returns what it wrote to stdout
func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--root", root}, args...))

	err := rootCmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, root string, args ...string) string {
	t.Helper()
	out, err := run(t, root, args...)
	require.NoError(t, err, "knowledge %v", args)
	return out
}

// startSession starts a session and returns its id
func startSession(t *testing.T, root string, args ...string) string {
	t.Helper()
	out := mustRun(t, root, append([]string{"start", "-q"}, args...)...)
	return strings.TrimSpace(out)
}
