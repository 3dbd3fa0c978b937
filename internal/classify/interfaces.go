package classify

import "context"

// ContentProvider makes the current item visible to the labeler.
type ContentProvider interface {
	// Display renders the title(s) and content of item. Fetch failures are
	// reported wrapping ErrContentUnavailable.
	Display(ctx context.Context, item Item, mode Mode) error
	// Clear removes prior content. Providers that cannot clear treat it as a no-op.
	Clear() error
}

// ModeSupporter is implemented by providers that only handle some modes.
// Providers that do not implement it are assumed to handle every mode.
type ModeSupporter interface {
	SupportsMode(mode Mode) bool
}

// FallbackProvider is implemented by providers with an alternate content
// source the labeler can request for the current item.
type FallbackProvider interface {
	FetchFallback(ctx context.Context, item Item) error
}

// ResultSink durably appends result rows.
type ResultSink interface {
	// WriteRow appends row. It must report failure and must not return
	// before the row is durable.
	WriteRow(row Row) error
}

// LinkPane shows the source and target of the link being classified.
type LinkPane interface {
	ShowLink(source, target string)
	ClearLink()
}

// Observer is notified after each decision has been written.
type Observer interface {
	Decided(identifier string, item Item, label string)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(identifier string, item Item, label string)

// Decided calls f.
func (f ObserverFunc) Decided(identifier string, item Item, label string) {
	f(identifier, item, label)
}

// ProgressSink receives operator-facing progress for each decision. It is
// never consulted for control flow.
type ProgressSink interface {
	Progress(position, total int, row Row)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(position, total int, row Row)

// Progress calls f.
func (f ProgressFunc) Progress(position, total int, row Row) {
	f(position, total, row)
}

// Observers fans a decision out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(identifier string, item Item, label string) {
		for _, o := range obs {
			if o != nil {
				o.Decided(identifier, item, label)
			}
		}
	})
}

// ProgressSinks fans progress out to every non-nil sink in order.
func ProgressSinks(sinks ...ProgressSink) ProgressSink {
	return ProgressFunc(func(position, total int, row Row) {
		for _, s := range sinks {
			if s != nil {
				s.Progress(position, total, row)
			}
		}
	})
}
