package classify

import (
	"context"
	"errors"
)

// memorySink records rows; failNext makes the next write fail.
type memorySink struct {
	rows     []Row
	failNext error
}

func (s *memorySink) WriteRow(row Row) error {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.rows = append(s.rows, append(Row(nil), row...))
	return nil
}

type displayCall struct {
	identifier string
	mode       Mode
}

// recordingProvider records Display calls; failFor makes the listed
// identifiers fail.
type recordingProvider struct {
	displayed []displayCall
	clears    int
	failFor   map[string]error
	closed    int
	modes     []Mode
}

func (p *recordingProvider) Display(_ context.Context, item Item, mode Mode) error {
	p.displayed = append(p.displayed, displayCall{identifier: item.Identifier, mode: mode})
	if err, ok := p.failFor[item.Identifier]; ok {
		return err
	}
	return nil
}

func (p *recordingProvider) Clear() error {
	p.clears++
	return nil
}

func (p *recordingProvider) Close() error {
	p.closed++
	return nil
}

// limitedProvider only supports the listed modes.
type limitedProvider struct {
	recordingProvider
	supported []Mode
}

func (p *limitedProvider) SupportsMode(mode Mode) bool {
	for _, m := range p.supported {
		if m == mode {
			return true
		}
	}
	return false
}

// fallbackProvider adds a fallback source.
type fallbackProvider struct {
	recordingProvider
	fetched []string
	err     error
}

func (p *fallbackProvider) FetchFallback(_ context.Context, item Item) error {
	p.fetched = append(p.fetched, item.Identifier)
	return p.err
}

type linkCall struct {
	source, target string
}

type recordingLinkPane struct {
	shown   []linkCall
	cleared int
}

func (p *recordingLinkPane) ShowLink(source, target string) {
	p.shown = append(p.shown, linkCall{source: source, target: target})
}

func (p *recordingLinkPane) ClearLink() { p.cleared++ }

var errDiskFull = errors.New("disk full")
