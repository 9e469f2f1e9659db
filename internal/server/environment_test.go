package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenBootstrapsAndExecutesStatements(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	env, err := Open(dir)
	require.NoError(t, err)
	require.DirExists(t, dir)

	var lines []string
	ok := env.RunSelfTest(func(s string) { lines = append(lines, s) })
	require.True(t, ok, "self-test output:\n%v", lines)
	require.Equal(t, "test passed", lines[len(lines)-1])
}
