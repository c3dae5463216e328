// Package executor runs the external per-instance migration command used by
// bulk-move.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marcoimbee/thesis-archive/relocate"
)

// Command invokes `<Executable> <Args...> migrate <instance> <destination>`.
// Exit status zero is success.
type Command struct {
	Executable string
	Args       []string
	Timeout    time.Duration // per invocation; zero means none
	Log        logrus.FieldLogger
}

// Ensure Command implements relocate.Migrator
var _ relocate.Migrator = (*Command)(nil)

// NewCommand creates a Command from the bulk configuration.
func NewCommand(cfg relocate.BulkConfig) *Command {
	return &Command{
		Executable: cfg.Executable,
		Args:       cfg.Args,
		Timeout:    time.Duration(cfg.TimeoutMs) * time.Millisecond,
		Log:        logrus.WithField("component", "executor"),
	}
}

// Argv returns the full argument list for one migration.
func (c *Command) Argv(instance relocate.InstanceID, destination relocate.NodeID) []string {
	argv := append([]string(nil), c.Args...)
	return append(argv, "migrate", string(instance), string(destination))
}

// Migrate implements relocate.Migrator. A non-zero exit or a failure to
// start the process is reported as relocate.ErrExternalCommand.
func (c *Command) Migrate(ctx context.Context, instance relocate.InstanceID, destination relocate.NodeID) error {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	argv := c.Argv(instance, destination)
	cmd := exec.CommandContext(ctx, c.Executable, argv...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if c.Log != nil {
		c.Log.WithField("argv", strings.Join(argv, " ")).Debugf("running %s", c.Executable)
	}
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %s exited with status %d: %s", relocate.ErrExternalCommand,
			c.Executable, exitErr.ExitCode(), strings.TrimSpace(out.String()))
	}
	return fmt.Errorf("%w: running %s: %v", relocate.ErrExternalCommand, c.Executable, err)
}
