package logging

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestWithSessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "7f0c1c8e-3a3b-4c1e-9d52-6a8f3b2e1d00")
	assert.Equal(t, "7f0c1c8e-3a3b-4c1e-9d52-6a8f3b2e1d00", SessionIDFromContext(ctx))

	fields := ContextFields(ctx)
	assert.Len(t, fields, 1)
	assert.Equal(t, "session.id", fields[0].Key)
}

func TestWithSessionID_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { WithSessionID(context.Background(), "") })
	assert.Panics(t, func() { WithSessionID(context.Background(), "has space") })
}

func TestWithItemID(t *testing.T) {
	t.Run("keeps urls", func(t *testing.T) {
		ctx := WithItemID(context.Background(), "https://example.com/a b?x=1#frag")
		assert.Equal(t, "https://example.com/a b?x=1#frag", ItemIDFromContext(ctx))
	})

	t.Run("truncates long identifiers on rune boundary", func(t *testing.T) {
		long := strings.Repeat("é", maxItemIDLen)
		got := ItemIDFromContext(WithItemID(context.Background(), long))
		assert.LessOrEqual(t, len(got), maxItemIDLen)
		assert.True(t, utf8.ValidString(got))
	})

	t.Run("repairs invalid utf8", func(t *testing.T) {
		got := ItemIDFromContext(WithItemID(context.Background(), "a\xffb"))
		assert.True(t, utf8.ValidString(got))
	})
}

type fakeSecret string

func (s fakeSecret) Value() string { return string(s) }

func TestSecretField(t *testing.T) {
	f := Secret("dsn", fakeSecret("postgres://u:p@h/db"))
	assert.Equal(t, "[REDACTED:19]", f.String)

	empty := Secret("dsn", fakeSecret(""))
	assert.Equal(t, "", empty.String)
}
