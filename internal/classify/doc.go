// Package classify implements the hand-classification loop: present one item,
// wait for a human label, record it, move to the next item.
//
// # Core Concepts
//
// Session: owns the ordered item sequence, the label set, the cursor and the
// per-label counts. It is a linear state machine driven by two external events,
// a label decision and an optional fallback fetch.
//
// ContentProvider: makes the current item visible. Providers are swappable
// (inline text, browser temp file, archive URL, archive plus document store)
// and hold no session state.
//
// ResultSink: durably appends one Row per decision. A row is written before
// the cursor or the counts move, so a failed write leaves the session on the
// same item and the human can retry.
//
// # Modes
//
//   - single: one pane, row is identifier, label, extras
//   - pair: two panes, row is identifier, secondary identifier, label, extras
//   - link: content pane plus a link pane showing identifier and link target
//
// Modes are not combined; the provider may refuse a mode at construction.
//
// # Usage
//
//	sess, err := classify.NewSession(classify.Config{
//	    Records:  records,
//	    Labels:   []string{"0", "1"},
//	    Sink:     sink,
//	    Provider: provider,
//	})
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	if err := sess.Start(ctx); err != nil && !errors.Is(err, classify.ErrContentUnavailable) {
//	    return err
//	}
//	// on every label click:
//	err = sess.Decide(ctx, "1")
//
// # Concurrency
//
// A Session is not safe for concurrent use. Front-ends call it from their
// single event loop.
package classify
