package classify

import (
	"fmt"
	"strings"
)

// Mode selects how items are laid out and how rows are encoded.
type Mode int

const (
	// ModeSingle shows one item per decision.
	ModeSingle Mode = iota
	// ModePair shows two items side by side and classifies their relationship.
	ModePair
	// ModeLink shows an item plus the target of a link found in it.
	ModeLink
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModePair:
		return "pair"
	case ModeLink:
		return "link"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// MinFields is the number of record fields an item needs in this mode.
func (m Mode) MinFields() int {
	switch m {
	case ModePair:
		return 4
	case ModeLink:
		return 3
	}
	return 2
}

// Panes is the number of content panes the mode displays.
func (m Mode) Panes() int {
	if m == ModePair {
		return 2
	}
	return 1
}

// ParseMode parses a mode name. The empty string means single.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return ModeSingle, nil
	case "pair":
		return ModePair, nil
	case "link":
		return ModeLink, nil
	}
	return ModeSingle, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, s)
}

// ModeFromFlags maps the pair/link switches to a Mode. Both set is rejected.
func ModeFromFlags(pair, link bool) (Mode, error) {
	switch {
	case pair && link:
		return ModeSingle, fmt.Errorf("%w: pair and link modes cannot be combined", ErrConfiguration)
	case pair:
		return ModePair, nil
	case link:
		return ModeLink, nil
	}
	return ModeSingle, nil
}

// Record is one raw input tuple: identifier, content, then mode-specific
// fields and passthrough extras.
type Record []string

// Item is one unit of content to classify. Items are immutable once the
// session is built.
type Item struct {
	Identifier string
	Content    string

	// LinkTarget is set in link mode only. It is shown, not re-emitted.
	LinkTarget string

	// SecondaryIdentifier and SecondaryContent are set in pair mode only.
	SecondaryIdentifier string
	SecondaryContent    string

	// Extras are copied verbatim into the output row after the label.
	Extras []string
}

// NewItem builds an Item from a record according to mode.
func NewItem(mode Mode, rec Record) (Item, error) {
	if len(rec) < mode.MinFields() {
		return Item{}, fmt.Errorf("%w: %s mode needs at least %d fields, got %d",
			ErrMalformedItem, mode, mode.MinFields(), len(rec))
	}

	item := Item{
		Identifier: rec[0],
		Content:    rec[1],
	}

	var extras []string
	switch mode {
	case ModePair:
		item.SecondaryIdentifier = rec[2]
		item.SecondaryContent = rec[3]
		extras = rec[4:]
	case ModeLink:
		item.LinkTarget = rec[2]
		extras = rec[3:]
	default:
		extras = rec[2:]
	}
	if len(extras) > 0 {
		item.Extras = append([]string(nil), extras...)
	}
	return item, nil
}

// Row is one output line in fixed column order.
type Row []string

// RowFor encodes the decision for item in the column order of mode.
func RowFor(mode Mode, item Item, label string) Row {
	row := make(Row, 0, 3+len(item.Extras))
	row = append(row, item.Identifier)
	if mode == ModePair {
		row = append(row, item.SecondaryIdentifier)
	}
	row = append(row, label)
	row = append(row, item.Extras...)
	return row
}

// LabelSet is the ordered, fixed set of labels a human may choose from.
type LabelSet struct {
	labels []string
	index  map[string]int
}

// NewLabelSet validates labels: at least two, all distinct, none empty.
func NewLabelSet(labels []string) (LabelSet, error) {
	if len(labels) < 2 {
		return LabelSet{}, fmt.Errorf("%w: classifier needs at least 2 labels, got %d", ErrConfiguration, len(labels))
	}
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		if l == "" {
			return LabelSet{}, fmt.Errorf("%w: label %d is empty", ErrConfiguration, i)
		}
		if _, dup := index[l]; dup {
			return LabelSet{}, fmt.Errorf("%w: duplicate label %q", ErrConfiguration, l)
		}
		index[l] = i
	}
	return LabelSet{labels: append([]string(nil), labels...), index: index}, nil
}

// Contains reports whether label is in the set.
func (s LabelSet) Contains(label string) bool {
	_, ok := s.index[label]
	return ok
}

// Index returns the display position of label, or -1.
func (s LabelSet) Index(label string) int {
	if i, ok := s.index[label]; ok {
		return i
	}
	return -1
}

// Len returns the number of labels.
func (s LabelSet) Len() int { return len(s.labels) }

// Slice returns a copy of the labels in display order.
func (s LabelSet) Slice() []string {
	return append([]string(nil), s.labels...)
}

// LabelCounts maps a label to the number of items classified with it in
// this session.
type LabelCounts map[string]int

// Total sums all counts.
func (c LabelCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Progress describes the operator-facing position of the session.
type Progress struct {
	// Position is cursor+1: the 1-based number of the current item in this run.
	Position int
	// Total is Position plus the items classified in previous runs.
	Total int
	// Remaining counts items not yet classified in this run, current included.
	Remaining int
	// Items is the length of the item sequence.
	Items int
	Previous int
	Done     bool
}

// String renders "position / total", or just the position when there was no
// previous run.
func (p Progress) String() string {
	if p.Previous > 0 {
		return fmt.Sprintf("%d / %d", p.Position, p.Total)
	}
	return fmt.Sprintf("%d", p.Position)
}
