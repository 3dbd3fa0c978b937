package classify

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/handclass/internal/logging"
	"go.uber.org/zap"
)

// Logger wraps zap.Logger with classification-specific structured logging.
type Logger struct {
	logger *zap.Logger
}

// NewLogger creates a new Logger. If logger is nil, uses a no-op logger.
func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("classify")}
}

// SessionCreated logs a newly constructed session.
func (l *Logger) SessionCreated(ctx context.Context, mode Mode, items, labels, previous int) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx),
		zap.Stringer("mode", mode),
		zap.Int("items", items),
		zap.Int("labels", labels),
		zap.Int("previous", previous),
	)
	l.logger.Info("session created", fields...)
}

// ItemDisplayed logs the item that became current.
func (l *Logger) ItemDisplayed(ctx context.Context, position int, item Item) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx),
		zap.Int("position", position),
		zap.String("identifier", item.Identifier),
	)
	if item.SecondaryIdentifier != "" {
		fields = append(fields, zap.String("secondary_identifier", item.SecondaryIdentifier))
	}
	l.logger.Debug("item displayed", fields...)
}

// DisplayFailed logs a provider failure for the current item.
func (l *Logger) DisplayFailed(ctx context.Context, position int, identifier string, err error) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx),
		zap.Int("position", position),
		zap.String("identifier", identifier),
		zap.Error(err),
	)
	l.logger.Warn("content unavailable", fields...)
}

// DecisionRecorded logs a row that has been written.
func (l *Logger) DecisionRecorded(ctx context.Context, position int, identifier, label string, elapsed time.Duration) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx),
		zap.Int("position", position),
		zap.String("identifier", identifier),
		zap.String("label", label),
		zap.Duration("elapsed", elapsed),
	)
	l.logger.Info("decision recorded", fields...)
}

// WriteFailed logs a sink failure. The session stays on the same item.
func (l *Logger) WriteFailed(ctx context.Context, identifier, label string, err error) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx),
		zap.String("identifier", identifier),
		zap.String("label", label),
		zap.Error(err),
	)
	l.logger.Error("result write failed", fields...)
}

// InvalidLabel logs a rejected decision.
func (l *Logger) InvalidLabel(ctx context.Context, label string) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx), zap.String("label", label))
	l.logger.Warn("invalid label rejected", fields...)
}

// FallbackFetched logs a fallback fetch; err is nil on success.
func (l *Logger) FallbackFetched(ctx context.Context, identifier string, err error) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx), zap.String("identifier", identifier))
	if err != nil {
		fields = append(fields, zap.Error(err))
		l.logger.Warn("fallback fetch failed", fields...)
		return
	}
	l.logger.Info("fallback fetched", fields...)
}

// SessionComplete logs the terminal state.
func (l *Logger) SessionComplete(ctx context.Context, counts LabelCounts, duration time.Duration) {
	if l == nil || l.logger == nil {
		return
	}
	fields := append(logging.ContextFields(ctx),
		zap.Int("classified", counts.Total()),
		zap.Any("counts", map[string]int(counts)),
		zap.Duration("duration", duration),
	)
	l.logger.Info("finished", fields...)
}

// LogProgress is a ProgressSink writing one debug entry per decision.
type LogProgress struct {
	logger   *zap.Logger
	previous int
}

// NewLogProgress creates a progress sink. previous selects whether the total
// is included, as in "12 / 112".
func NewLogProgress(logger *zap.Logger, previous int) *LogProgress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogProgress{logger: logger.Named("progress"), previous: previous}
}

// Progress implements ProgressSink.
func (p *LogProgress) Progress(position, total int, row Row) {
	fields := []zap.Field{
		zap.Int("position", position),
		zap.Strings("row", row),
	}
	if p.previous > 0 {
		fields = append(fields, zap.Int("total", total))
	}
	p.logger.Debug("classified", fields...)
}
