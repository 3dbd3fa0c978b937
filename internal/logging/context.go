package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)
	if ctx == nil {
		return fields
	}

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if sessionID := SessionIDFromContext(ctx); sessionID != "" {
		fields = append(fields, zap.String("session.id", sessionID))
	}

	if itemID := ItemIDFromContext(ctx); itemID != "" {
		fields = append(fields, zap.String("item.id", itemID))
	}

	return fields
}

// Context key types
type sessionCtxKey struct{}
type itemCtxKey struct{}

const (
	maxSessionIDLen = 128
	// Identifiers are usually URLs; longer ones are truncated in logs.
	maxItemIDLen = 512
)

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionID reports whether id can be used with WithSessionID.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}
	if len(id) > maxSessionIDLen {
		return fmt.Errorf("sessionID exceeds max length %d", maxSessionIDLen)
	}
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("sessionID contains invalid characters (must be alphanumeric, hyphen, underscore)")
	}
	return nil
}

// SessionIDFromContext extracts session ID from context.
func SessionIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sessionCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithSessionID adds session ID to context.
// Panics if sessionID is empty or contains invalid characters.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if err := ValidateSessionID(sessionID); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// ItemIDFromContext extracts the current item identifier from context.
func ItemIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(itemCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithItemID adds an item identifier to context. Identifiers are free-form;
// invalid UTF-8 is replaced and long values are truncated.
func WithItemID(ctx context.Context, itemID string) context.Context {
	if !utf8.ValidString(itemID) {
		itemID = string([]rune(itemID))
	}
	if len(itemID) > maxItemIDLen {
		itemID = truncateUTF8(itemID, maxItemIDLen)
	}
	return context.WithValue(ctx, itemCtxKey{}, itemID)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
