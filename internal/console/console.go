// Package console is a line-oriented front-end for terminals without full
// screen support and for scripted input.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/handclass/internal/classify"
	"github.com/fyrsmithlabs/handclass/internal/content"
)

// Each command has a short and a long spelling. Labels are matched first,
// so a label named like a command shadows that spelling only.
var (
	cmdQuit     = []string{"q", "quit"}
	cmdFallback = []string{"f", "fetch"}
)

// Options configures a Console.
type Options struct {
	Session *classify.Session
	Buffer  *content.Buffer
	In      io.Reader
	Out     io.Writer
	Logger  *zap.Logger
}

// Console reads one choice per line and routes it to the session.
type Console struct {
	session *classify.Session
	buffer  *content.Buffer
	in      *bufio.Scanner
	out     io.Writer
	logger  *zap.Logger
	version uint64
}

// New creates a console.
func New(opts Options) (*Console, error) {
	switch {
	case opts.Session == nil:
		return nil, fmt.Errorf("%w: console needs a session", classify.ErrConfiguration)
	case opts.Buffer == nil:
		return nil, fmt.Errorf("%w: console needs a pane buffer", classify.ErrConfiguration)
	case opts.In == nil || opts.Out == nil:
		return nil, fmt.Errorf("%w: console needs input and output", classify.ErrConfiguration)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	in := bufio.NewScanner(opts.In)
	in.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Console{
		session: opts.Session,
		buffer:  opts.Buffer,
		in:      in,
		out:     opts.Out,
		logger:  logger.Named("console"),
	}, nil
}

// Run starts the session and processes input until the session completes,
// the labeler quits, input ends or ctx is cancelled. Quitting early is not
// an error.
func (c *Console) Run(ctx context.Context) error {
	if err := c.session.Start(ctx); err != nil {
		if !errors.Is(err, classify.ErrContentUnavailable) {
			return err
		}
		c.printError(err)
	}

	for !c.session.Done() {
		c.render()
		c.prompt()
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			c.logger.Debug("input closed before session completed")
			return nil
		}

		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}
		if label, ok := c.resolve(line); ok {
			if err := c.session.Decide(ctx, label); err != nil {
				c.printError(err)
			}
			continue
		}
		switch {
		case slices.Contains(cmdQuit, line):
			return nil
		case slices.Contains(cmdFallback, line):
			if err := c.session.FetchFallback(ctx); err != nil {
				c.printError(err)
			}
		default:
			fmt.Fprintf(c.out, "unknown choice %q\n", line)
		}
	}

	fmt.Fprintf(c.out, "done: %s\n", formatCounts(c.session.Labels(), c.session.Counts()))
	return nil
}

// resolve maps input to a label. An exact label name wins over a 1-based
// button number, so labels that look like numbers keep working.
func (c *Console) resolve(line string) (string, bool) {
	labels := c.session.Labels()
	for _, l := range labels {
		if l == line {
			return l, true
		}
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(labels) {
		return "", false
	}
	return labels[n-1], true
}

func (c *Console) render() {
	view := c.buffer.Snapshot()
	if view.Version == c.version {
		return
	}
	c.version = view.Version

	fmt.Fprintf(c.out, "\n== %s ==\n", c.session.Progress())
	if view.Link != nil {
		fmt.Fprintf(c.out, "link: %s -> %s\n", view.Link.Source, view.Link.Target)
	}
	for _, p := range view.Panes {
		fmt.Fprintf(c.out, "-- %s --\n%s\n", p.Identifier, p.Text)
	}
	if view.Notice != "" {
		fmt.Fprintf(c.out, "! %s\n", view.Notice)
	}
}

func (c *Console) prompt() {
	labels := c.session.Labels()
	parts := make([]string, 0, len(labels)+2)
	for i, l := range labels {
		parts = append(parts, fmt.Sprintf("[%d] %s", i+1, l))
	}
	if key := c.commandKey(cmdFallback); key != "" && c.session.CanFetchFallback() {
		parts = append(parts, fmt.Sprintf("[%s] fetch text", key))
	}
	if key := c.commandKey(cmdQuit); key != "" {
		parts = append(parts, fmt.Sprintf("[%s] quit", key))
	}
	fmt.Fprintf(c.out, "%s > ", strings.Join(parts, "  "))
}

// commandKey returns the first spelling of a command no label shadows, or
// "" when every spelling is a label.
func (c *Console) commandKey(spellings []string) string {
	labels := c.session.Labels()
	for _, sp := range spellings {
		if !slices.Contains(labels, sp) {
			return sp
		}
	}
	return ""
}

func (c *Console) printError(err error) {
	c.logger.Debug("showing error", zap.Error(err))
	fmt.Fprintf(c.out, "error: %v\n", err)
}

func formatCounts(labels []string, counts classify.LabelCounts) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s:%d", l, counts[l]))
	}
	return strings.Join(parts, " ")
}
