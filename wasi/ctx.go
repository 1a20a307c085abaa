package wasi

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/wasi-common/clocks"
	"github.com/wippyai/wasi-common/dir"
	"github.com/wippyai/wasi-common/errors"
	"github.com/wippyai/wasi-common/file"
	"github.com/wippyai/wasi-common/resource"
	"github.com/wippyai/wasi-common/sched"
)

// Ctx is the execution context of one guest instance. Create it with
// New().Build() and release it with Close.
type Ctx struct {
	table    *resource.Table
	random   io.Reader
	sched    sched.Scheduler
	logger   *zap.Logger
	clocks   clocks.Clocks
	args     StringArray
	env      StringArray
	exitCode uint32
	exited   bool
}

// Table returns the handle table.
func (c *Ctx) Table() *resource.Table { return c.table }

// Clocks returns the context clocks.
func (c *Ctx) Clocks() clocks.Clocks { return c.clocks }

// Scheduler returns the scheduler serving poll_oneoff and sched_yield.
func (c *Ctx) Scheduler() sched.Scheduler { return c.sched }

// Logger returns the context logger.
func (c *Ctx) Logger() *zap.Logger { return c.logger }

// Args returns the argument vector.
func (c *Ctx) Args() StringArray { return c.args }

// Environ returns the environment as KEY=VALUE entries.
func (c *Ctx) Environ() StringArray { return c.env }

// ExitCode returns the code passed to proc_exit, if the guest called it.
func (c *Ctx) ExitCode() (uint32, bool) { return c.exitCode, c.exited }

// InsertFile adds an open file and returns its handle. Nil rights leave
// the handle unrestricted.
func (c *Ctx) InsertFile(f file.File, rights *resource.Rights) (resource.Handle, error) {
	return c.table.InsertEntry(resource.Entry{Value: file.WithCursor(f), Rights: rights})
}

// InsertDir adds a directory. A non-empty preopen makes it visible to
// fd_prestat_get under that guest path.
func (c *Ctx) InsertDir(d dir.Dir, rights *resource.Rights, preopen string) (resource.Handle, error) {
	return c.table.InsertEntry(resource.Entry{Value: d, Rights: rights, Preopen: preopen})
}

// Close drops every remaining handle, closing its backend. It is safe to
// call more than once.
func (c *Ctx) Close(ctx context.Context) error {
	if err := c.table.Close(ctx); err != nil {
		c.logger.Debug("closing handles", zap.Error(err))
		return errors.Wrap(errors.PhaseBackend, errors.KindIo, err, "close context")
	}
	return nil
}
