package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// script writes an executable shell script and returns its path.
func script(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "proxy_cli")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCommand_Argv(t *testing.T) {
	c := NewCommand(relocate.BulkConfig{Executable: "proxy_cli", Args: []string{"intent"}})

	assert.Equal(t, []string{"intent", "migrate", "f1", "node-2"}, c.Argv("f1", "node-2"))
	assert.Equal(t, []string{"intent"}, c.Args, "Argv must not alias the configured args")
}

func TestCommand_Migrate_Success(t *testing.T) {
	// GIVEN a command that records its arguments
	out := filepath.Join(t.TempDir(), "args")
	c := &Command{Executable: script(t, `echo "$@" > `+out), Args: []string{"intent"}}

	// WHEN migrating
	err := c.Migrate(context.Background(), "f1", "node-2")

	// THEN it succeeds and received the full argument list
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "intent migrate f1 node-2", strings.TrimSpace(string(got)))
}

func TestCommand_Migrate_NonZeroExit(t *testing.T) {
	c := &Command{Executable: script(t, `echo "no route to node" >&2; exit 3`)}

	err := c.Migrate(context.Background(), "f1", "node-2")

	assert.ErrorIs(t, err, relocate.ErrExternalCommand)
	assert.Contains(t, err.Error(), "status 3")
	assert.Contains(t, err.Error(), "no route to node")
}

func TestCommand_Migrate_MissingExecutable(t *testing.T) {
	c := &Command{Executable: filepath.Join(t.TempDir(), "absent")}

	err := c.Migrate(context.Background(), "f1", "node-2")

	assert.ErrorIs(t, err, relocate.ErrExternalCommand)
}

func TestCommand_Migrate_Timeout(t *testing.T) {
	c := &Command{Executable: script(t, "exec sleep 5"), Timeout: 50 * time.Millisecond}

	start := time.Now()
	err := c.Migrate(context.Background(), "f1", "node-2")

	assert.ErrorIs(t, err, relocate.ErrExternalCommand)
	assert.Less(t, time.Since(start), 4*time.Second)
}
