// Package cli provides styled terminal output for the webserver command
package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/jzx17/threadpool/pkg/types"
)

// Console writes human-facing status lines. Structured logs go through slog instead.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	isQuiet bool
	Bold    *color.Color
	Green   *color.Color
	Yellow  *color.Color
	Red     *color.Color
	Cyan    *color.Color
}

// New creates a Console writing to stderr
func New(quiet bool) *Console {
	return NewWithWriter(os.Stderr, quiet)
}

// NewWithWriter creates a Console writing to out
func NewWithWriter(out io.Writer, quiet bool) *Console {
	return &Console{
		out:     out,
		isQuiet: quiet,
		Bold:    color.New(color.Bold),
		Green:   color.New(color.FgGreen),
		Yellow:  color.New(color.FgYellow),
		Red:     color.New(color.FgRed),
		Cyan:    color.New(color.FgCyan),
	}
}

// Info prints a standard informational message
func (c *Console) Info(format string, a ...interface{}) {
	c.print(nil, "", format, a...)
}

// Success prints a success message
func (c *Console) Success(format string, a ...interface{}) {
	c.print(c.Green, "✓ ", format, a...)
}

// Warn prints a warning message
func (c *Console) Warn(format string, a ...interface{}) {
	c.print(c.Yellow, "! ", format, a...)
}

// Error prints an error message. Errors are shown even in quiet mode.
func (c *Console) Error(format string, a ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = c.Red.Fprintf(c.out, "✗ %s\n", fmt.Sprintf(format, a...))
}

func (c *Console) print(style *color.Color, prefix, format string, a ...interface{}) {
	if c.isQuiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg := prefix + fmt.Sprintf(format, a...)
	if style == nil {
		_, _ = fmt.Fprintln(c.out, msg)
		return
	}
	_, _ = style.Fprintln(c.out, msg)
}

// Banner prints the startup summary
func (c *Console) Banner(address string, workers int, metricsAddress string) {
	if c.isQuiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, _ = c.Bold.Fprintf(c.out, "Listening on %s ", address)
	_, _ = c.Cyan.Fprintf(c.out, "(%d workers)\n", workers)
	if metricsAddress != "" {
		_, _ = fmt.Fprintf(c.out, "Metrics on http://%s/metrics\n", metricsAddress)
	}
}

// PoolSummary prints final pool statistics
func (c *Console) PoolSummary(stats types.PoolStats) {
	c.Info("Served %d connections (%d completed, %d panicked, %d still queued)",
		stats.Submitted, stats.Completed, stats.Panicked, stats.QueuedJobs)
	if stats.Panicked > 0 {
		c.Warn("%d handler(s) panicked", stats.Panicked)
	}
}
