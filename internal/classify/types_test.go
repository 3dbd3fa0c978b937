package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeSingle, "single": ModeSingle, "Pair": ModePair, " link ": ModeLink} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("triple")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestModeFromFlags(t *testing.T) {
	m, err := ModeFromFlags(false, false)
	require.NoError(t, err)
	assert.Equal(t, ModeSingle, m)

	m, err = ModeFromFlags(true, false)
	require.NoError(t, err)
	assert.Equal(t, ModePair, m)

	m, err = ModeFromFlags(false, true)
	require.NoError(t, err)
	assert.Equal(t, ModeLink, m)

	_, err = ModeFromFlags(true, true)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestNewItem(t *testing.T) {
	item, err := NewItem(ModeLink, Record{"src", "body", "dst", "x", "y"})
	require.NoError(t, err)
	assert.Equal(t, Item{Identifier: "src", Content: "body", LinkTarget: "dst", Extras: []string{"x", "y"}}, item)

	item, err = NewItem(ModeSingle, Record{"id", ""})
	require.NoError(t, err)
	assert.Nil(t, item.Extras)

	_, err = NewItem(ModePair, Record{"a", "b"})
	assert.ErrorIs(t, err, ErrMalformedItem)
}

func TestNewItem_CopiesExtras(t *testing.T) {
	rec := Record{"id", "body", "extra"}
	item, err := NewItem(ModeSingle, rec)
	require.NoError(t, err)
	rec[2] = "mutated"
	assert.Equal(t, []string{"extra"}, item.Extras)
}

func TestLabelSet(t *testing.T) {
	set, err := NewLabelSet([]string{"b", "a", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{"b", "a", "c"}, set.Slice())
	assert.Equal(t, 1, set.Index("a"))
	assert.Equal(t, -1, set.Index("z"))
	assert.True(t, set.Contains("c"))
	assert.False(t, set.Contains("C"))
}

func TestProgressString(t *testing.T) {
	assert.Equal(t, "3", Progress{Position: 3, Total: 3}.String())
	assert.Equal(t, "3 / 53", Progress{Position: 3, Total: 53, Previous: 50}.String())
}
