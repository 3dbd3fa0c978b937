package classify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fyrsmithlabs/handclass/internal/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Config holds the inputs of a Session.
type Config struct {
	// ID names the session in logs and spans; empty generates a UUID.
	ID string
	// Records is the non-empty item sequence in display order.
	Records []Record
	// Labels needs at least two distinct values.
	Labels []string
	Mode   Mode
	// Previous is the number of items classified in an earlier run. It only
	// affects progress display.
	Previous int

	Sink     ResultSink
	Provider ContentProvider
	// LinkPane is required in link mode and ignored otherwise.
	LinkPane LinkPane

	// Observer, Progress and OnComplete are optional.
	Observer   Observer
	Progress   ProgressSink
	OnComplete func()

	Logger  *zap.Logger
	Metrics *Metrics
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Session is the classification state machine.
type Session struct {
	id       string
	items    []Item
	labels   LabelSet
	mode     Mode
	previous int

	sink       ResultSink
	provider   ContentProvider
	linkPane   LinkPane
	observer   Observer
	progress   ProgressSink
	onComplete func()

	logger  *Logger
	metrics *Metrics
	now     func() time.Time

	// cursor starts one before the first item so Advance is the only way in.
	cursor    int
	counts    LabelCounts
	done      bool
	closed    bool
	started   time.Time
	displayed time.Time
}

// NewSession validates cfg and builds a session positioned before the first
// item. Nothing is displayed until Start.
func NewSession(cfg Config) (*Session, error) {
	labels, err := NewLabelSet(cfg.Labels)
	if err != nil {
		return nil, err
	}
	if len(cfg.Records) == 0 {
		return nil, fmt.Errorf("%w: no items to classify", ErrConfiguration)
	}
	if cfg.Previous < 0 {
		return nil, fmt.Errorf("%w: previous count must be >= 0, got %d", ErrConfiguration, cfg.Previous)
	}
	if cfg.Mode < ModeSingle || cfg.Mode > ModeLink {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrConfiguration, int(cfg.Mode))
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("%w: result sink is required", ErrConfiguration)
	}
	if cfg.Provider == nil {
		return nil, fmt.Errorf("%w: content provider is required", ErrConfiguration)
	}
	if ms, ok := cfg.Provider.(ModeSupporter); ok && !ms.SupportsMode(cfg.Mode) {
		return nil, fmt.Errorf("%w: content provider %T does not support %s mode", ErrConfiguration, cfg.Provider, cfg.Mode)
	}
	if cfg.Mode == ModeLink && cfg.LinkPane == nil {
		return nil, fmt.Errorf("%w: link mode needs a link pane", ErrConfiguration)
	}

	items := make([]Item, len(cfg.Records))
	for i, rec := range cfg.Records {
		item, err := NewItem(cfg.Mode, rec)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items[i] = item
	}

	counts := make(LabelCounts, labels.Len())
	for _, l := range labels.Slice() {
		counts[l] = 0
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	} else if err := logging.ValidateSessionID(id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	s := &Session{
		id:         id,
		items:      items,
		labels:     labels,
		mode:       cfg.Mode,
		previous:   cfg.Previous,
		sink:       cfg.Sink,
		provider:   cfg.Provider,
		observer:   cfg.Observer,
		progress:   cfg.Progress,
		onComplete: cfg.OnComplete,
		logger:     NewLogger(cfg.Logger),
		metrics:    cfg.Metrics,
		now:        now,
		cursor:     -1,
		counts:     counts,
	}
	if cfg.Mode == ModeLink {
		s.linkPane = cfg.LinkPane
	}

	s.logger.SessionCreated(s.context(context.Background()), s.mode, len(items), labels.Len(), s.previous)
	s.metrics.setRemaining(len(items))
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Mode returns the session mode.
func (s *Session) Mode() Mode { return s.mode }

// Labels returns the labels in display order.
func (s *Session) Labels() []string { return s.labels.Slice() }

// Len returns the number of items.
func (s *Session) Len() int { return len(s.items) }

// Position returns the cursor: -1 before Start, len(items) when done.
func (s *Session) Position() int { return s.cursor }

// Done reports whether every item has been classified.
func (s *Session) Done() bool { return s.done }

// Current returns the item under the cursor.
func (s *Session) Current() (Item, bool) {
	if s.cursor < 0 || s.done {
		return Item{}, false
	}
	return s.items[s.cursor], true
}

// Counts returns a copy of the per-label counts.
func (s *Session) Counts() LabelCounts {
	out := make(LabelCounts, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Progress returns the operator-facing position.
func (s *Session) Progress() Progress {
	p := Progress{
		Items:    len(s.items),
		Previous: s.previous,
		Done:     s.done,
	}
	if s.cursor >= 0 {
		pos := s.cursor
		if s.done {
			pos = len(s.items) - 1
		}
		p.Position = pos + 1
		p.Total = pos + 1 + s.previous
	}
	p.Remaining = len(s.items) - max(s.cursor, 0)
	if s.done {
		p.Remaining = 0
	}
	return p
}

// CanFetchFallback reports whether the provider has a fallback source.
func (s *Session) CanFetchFallback() bool {
	_, ok := s.provider.(FallbackProvider)
	return ok
}

// Start displays the first item.
func (s *Session) Start(ctx context.Context) error {
	if s.cursor >= 0 {
		return ErrAlreadyStarted
	}
	s.started = s.now()
	return s.Advance(ctx)
}

// Advance moves to the next item and displays it, or enters the terminal
// state when the sequence is exhausted. After completion it is a no-op.
func (s *Session) Advance(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.cursor++
	if s.cursor >= len(s.items) {
		s.cursor = len(s.items)
		s.done = true
		s.metrics.setRemaining(0)
		s.logger.SessionComplete(s.context(ctx), s.counts, s.now().Sub(s.started))
		if s.onComplete != nil {
			s.onComplete()
		}
		return nil
	}
	s.metrics.setRemaining(len(s.items) - s.cursor)
	return s.display(ctx)
}

func (s *Session) display(ctx context.Context) (err error) {
	item := s.items[s.cursor]
	ctx = logging.WithItemID(s.context(ctx), item.Identifier)
	ctx, span := startSpan(ctx, "classify.display",
		attribute.String("item.identifier", item.Identifier),
		attribute.Int("item.position", s.cursor+1),
	)
	defer func() { endSpan(span, err) }()

	s.displayed = s.now()

	if s.linkPane != nil {
		s.linkPane.ClearLink()
		s.linkPane.ShowLink(item.Identifier, item.LinkTarget)
	}
	if err := s.provider.Display(ctx, item, s.mode); err != nil {
		s.metrics.recordDisplayFailure()
		s.logger.DisplayFailed(ctx, s.cursor+1, item.Identifier, err)
		if errors.Is(err, ErrContentUnavailable) {
			return fmt.Errorf("display %s: %w", item.Identifier, err)
		}
		return fmt.Errorf("display %s: %w: %w", item.Identifier, ErrContentUnavailable, err)
	}
	s.logger.ItemDisplayed(ctx, s.cursor+1, item)
	return nil
}

// Decide records label for the current item and advances. The row is written
// before any state changes; a sink error leaves cursor and counts untouched.
//
// An error wrapping ErrContentUnavailable means the decision was recorded but
// the next item could not be shown.
func (s *Session) Decide(ctx context.Context, label string) (err error) {
	if err := s.checkActive(); err != nil {
		return err
	}
	if !s.labels.Contains(label) {
		s.logger.InvalidLabel(s.context(ctx), label)
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}

	item := s.items[s.cursor]
	position := s.cursor + 1
	ctx = logging.WithItemID(s.context(ctx), item.Identifier)
	spanCtx, span := startSpan(ctx, "classify.decide",
		attribute.String("item.identifier", item.Identifier),
		attribute.String("label", label),
	)

	row := RowFor(s.mode, item, label)
	if werr := s.sink.WriteRow(row); werr != nil {
		s.metrics.recordWriteFailure()
		s.logger.WriteFailed(spanCtx, item.Identifier, label, werr)
		err = fmt.Errorf("%w: %s: %w", ErrSinkWrite, item.Identifier, werr)
		endSpan(span, err)
		return err
	}

	elapsed := s.now().Sub(s.displayed)
	s.counts[label]++
	s.metrics.recordDecision(label, elapsed)
	s.logger.DecisionRecorded(spanCtx, position, item.Identifier, label, elapsed)
	if s.progress != nil {
		s.progress.Progress(position, position+s.previous, row)
	}
	if s.observer != nil {
		s.observer.Decided(item.Identifier, item, label)
	}
	endSpan(span, nil)

	return s.Advance(ctx)
}

// FetchFallback re-renders the current item from the provider's fallback
// source. Cursor, counts and output are unchanged.
func (s *Session) FetchFallback(ctx context.Context) (err error) {
	if err := s.checkActive(); err != nil {
		return err
	}
	fp, ok := s.provider.(FallbackProvider)
	if !ok {
		return ErrFallbackUnsupported
	}

	item := s.items[s.cursor]
	ctx = logging.WithItemID(s.context(ctx), item.Identifier)
	ctx, span := startSpan(ctx, "classify.fallback", attribute.String("item.identifier", item.Identifier))
	defer func() { endSpan(span, err) }()

	err = fp.FetchFallback(ctx, item)
	s.metrics.recordFallback(err)
	s.logger.FallbackFetched(ctx, item.Identifier, err)
	if err != nil && !errors.Is(err, ErrContentUnavailable) {
		err = fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}
	return err
}

// Close releases provider resources such as browser temp files. It is safe
// to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Session) checkActive() error {
	switch {
	case s.done:
		return ErrSessionComplete
	case s.cursor < 0:
		return ErrNotStarted
	}
	return nil
}

func (s *Session) context(ctx context.Context) context.Context {
	if logging.SessionIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.WithSessionID(ctx, s.id)
}
