package logging

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger owns a zap logger and the output it writes to.
type Logger struct {
	zap   *zap.Logger
	close func()
}

// NewLogger builds a logger from cfg. A nil cfg uses NewDefaultConfig.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Path == OutputDiscard {
		return &Logger{zap: zap.NewNop()}, nil
	}

	// zap.Open resolves "stdout" and "stderr" as well as file paths.
	sink, closeSink, err := zap.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log output %q: %w", cfg.Path, err)
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller())
	}
	if len(cfg.Fields) > 0 {
		opts = append(opts, zap.Fields(staticFields(cfg.Fields)...))
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, cfg.ZapLevel())
	return &Logger{zap: zap.New(core, opts...), close: closeSink}, nil
}

// staticFields turns configured fields into zap fields in key order.
func staticFields(m map[string]string) []zap.Field {
	fields := make([]zap.Field, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		fields = append(fields, zap.String(k, m[k]))
	}
	return fields
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = encodeLevel

	if format == FormatConsole {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// encodeLevel names TraceLevel, which zap would print as "Level(-2)".
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == TraceLevel {
		enc.AppendString("trace")
		return
	}
	zapcore.LowercaseLevelEncoder(l, enc)
}

// Underlying returns the zap logger handed to the rest of the program.
func (l *Logger) Underlying() *zap.Logger {
	return l.zap
}

// For returns the logger annotated with the correlation fields in ctx.
func (l *Logger) For(ctx context.Context) *zap.Logger {
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return l.zap
	}
	return l.zap.With(fields...)
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.zap.Core().Enabled(level)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	err := l.zap.Sync()
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

// Close flushes and releases the output opened by NewLogger.
func (l *Logger) Close() error {
	err := l.Sync()
	if l.close != nil {
		l.close()
		l.close = nil
	}
	return err
}

// isStdoutSyncError reports the EINVAL or ENOTTY returned when syncing a
// terminal or pipe on Linux.
func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
