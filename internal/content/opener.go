package content

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Opener hands a URL to something that can show it.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, target string) error

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context, target string) error { return f(ctx, target) }

// SystemOpener opens URLs with the platform's default handler, or with
// Command when set. The launched process is not waited for, so the browser
// keeps running in the background and the label UI keeps the focus.
type SystemOpener struct {
	// Command overrides the platform handler, e.g. "firefox --new-tab".
	// The target is appended as the last argument.
	Command string
	Logger  *zap.Logger
}

// Open implements Opener.
func (o *SystemOpener) Open(_ context.Context, target string) error {
	name, args, err := o.command(target)
	if err != nil {
		return err
	}
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s with %s: %w", target, name, err)
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Debug("browser command exited", zap.String("command", name), zap.Error(err))
		}
	}()
	return nil
}

func (o *SystemOpener) command(target string) (string, []string, error) {
	if fields := strings.Fields(o.Command); len(fields) > 0 {
		return fields[0], append(fields[1:], target), nil
	}
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "darwin":
		// -g leaves the browser in the background.
		return "open", []string{"-g", target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	}
	return "", nil, fmt.Errorf("no browser handler for %s; set browser.command", runtime.GOOS)
}

// launcher is the part shared by the browser-based providers: pacing,
// opening, and an optional inline notice.
type launcher struct {
	opener  Opener
	limiter *rate.Limiter
	panes   Panes
	logger  *zap.Logger
}

func newLauncher(opener Opener, minInterval time.Duration, panes Panes, logger *zap.Logger) launcher {
	if opener == nil {
		opener = &SystemOpener{Logger: logger}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return launcher{
		opener:  opener,
		limiter: rate.NewLimiter(limit, 1),
		panes:   panes,
		logger:  logger,
	}
}

func (l launcher) open(ctx context.Context, identifier, target string) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait to open %s: %w", target, err)
	}
	if err := l.opener.Open(ctx, target); err != nil {
		return err
	}
	l.logger.Debug("opened in browser", zap.String("identifier", identifier), zap.String("target", target))
	if l.panes != nil {
		return l.panes.Show(Pane{Identifier: identifier, Text: "Opened in browser: " + target})
	}
	return nil
}

func (l launcher) clear() {
	if l.panes != nil {
		l.panes.Clear()
	}
}
