package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/handclass/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newTestSession(t *testing.T, cfg Config) (*Session, *memorySink, *recordingProvider) {
	t.Helper()
	sink := &memorySink{}
	provider := &recordingProvider{}
	if cfg.Sink == nil {
		cfg.Sink = sink
	}
	if cfg.Provider == nil {
		cfg.Provider = provider
	}
	if cfg.Labels == nil {
		cfg.Labels = []string{"0", "1"}
	}
	sess, err := NewSession(cfg)
	require.NoError(t, err)
	return sess, sink, provider
}

func twoItems() []Record {
	return []Record{{"urlA", "text A"}, {"urlB", "text B"}}
}

func TestNewSession_Labels(t *testing.T) {
	tests := []struct {
		name    string
		labels  []string
		wantErr error
	}{
		{"two labels", []string{"0", "1"}, nil},
		{"several labels", []string{"news", "blog", "shop", "other"}, nil},
		{"no labels", nil, ErrConfiguration},
		{"one label", []string{"only"}, ErrConfiguration},
		{"duplicate labels", []string{"a", "a"}, ErrConfiguration},
		{"empty label", []string{"a", ""}, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Records:  twoItems(),
				Labels:   tt.labels,
				Sink:     &memorySink{},
				Provider: &recordingProvider{},
			}
			_, err := NewSession(cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewSession_ConfigurationErrors(t *testing.T) {
	base := func() Config {
		return Config{
			Records:  twoItems(),
			Labels:   []string{"0", "1"},
			Sink:     &memorySink{},
			Provider: &recordingProvider{},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no items", func(c *Config) { c.Records = nil }},
		{"negative previous", func(c *Config) { c.Previous = -1 }},
		{"no sink", func(c *Config) { c.Sink = nil }},
		{"no provider", func(c *Config) { c.Provider = nil }},
		{"unknown mode", func(c *Config) { c.Mode = Mode(9) }},
		{"link mode without pane", func(c *Config) {
			c.Mode = ModeLink
			c.Records = []Record{{"urlA", "text", "urlT"}}
		}},
		{"provider refuses mode", func(c *Config) {
			c.Mode = ModePair
			c.Records = []Record{{"a", "b", "c", "d"}}
			c.Provider = &limitedProvider{supported: []Mode{ModeSingle}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			sess, err := NewSession(cfg)
			assert.Nil(t, sess)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestNewSession_MalformedItems(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		records []Record
	}{
		{"single needs two fields", ModeSingle, []Record{{"urlA", "text"}, {"urlB"}}},
		{"link needs three fields", ModeLink, []Record{{"urlA", "text"}}},
		{"pair needs four fields", ModePair, []Record{{"urlA", "text", "urlA2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSession(Config{
				Records:  tt.records,
				Labels:   []string{"yes", "no"},
				Mode:     tt.mode,
				Sink:     &memorySink{},
				Provider: &recordingProvider{},
				LinkPane: &recordingLinkPane{},
			})
			assert.ErrorIs(t, err, ErrMalformedItem)
		})
	}
}

func TestSession_StartDisplaysFirstItem(t *testing.T) {
	sess, sink, provider := newTestSession(t, Config{Records: twoItems()})
	ctx := context.Background()

	assert.Equal(t, -1, sess.Position())
	assert.Empty(t, provider.displayed, "nothing is shown before Start")

	require.NoError(t, sess.Start(ctx))
	assert.Equal(t, 0, sess.Position())
	assert.Equal(t, []displayCall{{"urlA", ModeSingle}}, provider.displayed)
	assert.Empty(t, sink.rows)

	assert.ErrorIs(t, sess.Start(ctx), ErrAlreadyStarted)
	assert.Equal(t, 0, sess.Position())
}

func TestSession_TwoItemScenario(t *testing.T) {
	completions := 0
	sess, sink, provider := newTestSession(t, Config{
		Records:    twoItems(),
		OnComplete: func() { completions++ },
	})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	require.NoError(t, sess.Decide(ctx, "1"))
	assert.Equal(t, []Row{{"urlA", "1"}}, sink.rows)
	current, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, "urlB", current.Identifier)
	assert.Equal(t, "urlB", provider.displayed[len(provider.displayed)-1].identifier)

	require.NoError(t, sess.Decide(ctx, "0"))
	assert.Equal(t, []Row{{"urlA", "1"}, {"urlB", "0"}}, sink.rows)
	assert.True(t, sess.Done())
	assert.Equal(t, 2, sess.Position())
	assert.Len(t, provider.displayed, 2, "no display after the last item")
	assert.Equal(t, 1, completions)

	_, ok = sess.Current()
	assert.False(t, ok)
}

func TestSession_DecideNTimesWritesNRowsInOrder(t *testing.T) {
	records := make([]Record, 25)
	for i := range records {
		records[i] = Record{string(rune('a' + i)), "content"}
	}
	sess, sink, _ := newTestSession(t, Config{Records: records, Labels: []string{"x", "y", "z"}})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	labels := []string{"x", "y", "z"}
	for i := range records {
		require.NoError(t, sess.Decide(ctx, labels[i%3]))
	}

	require.Len(t, sink.rows, len(records))
	for i, row := range sink.rows {
		assert.Equal(t, records[i][0], row[0])
		assert.Equal(t, labels[i%3], row[1])
	}
	assert.True(t, sess.Done())
	assert.ErrorIs(t, sess.Decide(ctx, "x"), ErrSessionComplete)
	assert.Len(t, sink.rows, len(records))
}

func TestSession_PairMode(t *testing.T) {
	sess, sink, provider := newTestSession(t, Config{
		Records: []Record{{"urlA", "textA", "urlA2", "textA2"}},
		Labels:  []string{"yes", "no"},
		Mode:    ModePair,
	})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))
	assert.Equal(t, ModePair, provider.displayed[0].mode)

	require.NoError(t, sess.Decide(ctx, "yes"))
	assert.Equal(t, []Row{{"urlA", "urlA2", "yes"}}, sink.rows)
	assert.True(t, sess.Done())
}

func TestSession_ExtrasPassthrough(t *testing.T) {
	t.Run("single", func(t *testing.T) {
		sess, sink, _ := newTestSession(t, Config{Records: []Record{{"urlA", "text A", "text/html"}}})
		ctx := context.Background()
		require.NoError(t, sess.Start(ctx))
		require.NoError(t, sess.Decide(ctx, "0"))
		assert.Equal(t, []Row{{"urlA", "0", "text/html"}}, sink.rows)
	})

	t.Run("pair extras after secondary", func(t *testing.T) {
		sess, sink, _ := newTestSession(t, Config{
			Records: []Record{{"urlA", "textA", "urlB", "textB", "2017", "en"}},
			Mode:    ModePair,
		})
		ctx := context.Background()
		require.NoError(t, sess.Start(ctx))
		require.NoError(t, sess.Decide(ctx, "1"))
		assert.Equal(t, []Row{{"urlA", "urlB", "1", "2017", "en"}}, sink.rows)
	})
}

func TestSession_LinkMode(t *testing.T) {
	pane := &recordingLinkPane{}
	sess, sink, _ := newTestSession(t, Config{
		Records:  []Record{{"http://src", "<html/>", "http://dst", "text/html"}, {"http://src2", "", "http://dst2"}},
		Mode:     ModeLink,
		LinkPane: pane,
	})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))
	assert.Equal(t, []linkCall{{"http://src", "http://dst"}}, pane.shown)

	require.NoError(t, sess.Decide(ctx, "1"))
	assert.Equal(t, Row{"http://src", "1", "text/html"}, sink.rows[0], "link target is display only")
	assert.Equal(t, linkCall{"http://src2", "http://dst2"}, pane.shown[1])
	assert.Equal(t, 2, pane.cleared)
}

func TestSession_InvalidLabelChangesNothing(t *testing.T) {
	tl := logging.NewTestLogger()
	sess, sink, _ := newTestSession(t, Config{Records: twoItems(), Logger: tl.Underlying()})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	beforePos, beforeCounts := sess.Position(), sess.Counts()

	err := sess.Decide(ctx, "2")
	assert.ErrorIs(t, err, ErrInvalidLabel)
	assert.Empty(t, sink.rows)
	assert.Equal(t, beforePos, sess.Position())
	assert.Equal(t, beforeCounts, sess.Counts())
	tl.AssertLogged(t, zapcore.WarnLevel, "invalid label rejected")
}

func TestSession_CountsIncreaseByOne(t *testing.T) {
	sess, _, _ := newTestSession(t, Config{
		Records: []Record{{"a", ""}, {"b", ""}, {"c", ""}},
		Labels:  []string{"keep", "drop", "skip"},
	})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	before := sess.Counts()
	require.NoError(t, sess.Decide(ctx, "drop"))
	after := sess.Counts()

	assert.Equal(t, before["drop"]+1, after["drop"])
	assert.Equal(t, before["keep"], after["keep"])
	assert.Equal(t, before["skip"], after["skip"])
	assert.Equal(t, 1, after.Total())
}

func TestSession_WriteFailureLeavesStateUnchanged(t *testing.T) {
	decided := 0
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sess, sink, provider := newTestSession(t, Config{
		Records:  twoItems(),
		Observer: ObserverFunc(func(string, Item, string) { decided++ }),
		Metrics:  metrics,
	})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	sink.failNext = errDiskFull
	err := sess.Decide(ctx, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSinkWrite)
	assert.ErrorIs(t, err, errDiskFull)

	assert.Equal(t, 0, sess.Position())
	assert.Equal(t, 0, sess.Counts()["1"])
	assert.Equal(t, 0, decided, "observer runs only after a durable write")
	assert.Len(t, provider.displayed, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WriteFailuresTotal))

	// The same item can be retried.
	require.NoError(t, sess.Decide(ctx, "1"))
	assert.Equal(t, []Row{{"urlA", "1"}}, sink.rows)
	assert.Equal(t, 1, decided)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DecisionsTotal.WithLabelValues("1")))
}

func TestSession_ObserverAndProgress(t *testing.T) {
	type decision struct {
		id    string
		label string
	}
	type progressCall struct {
		position, total int
		row             Row
	}
	var decisions []decision
	var progress []progressCall

	sess, _, _ := newTestSession(t, Config{
		Records:  twoItems(),
		Previous: 10,
		Observer: ObserverFunc(func(id string, item Item, label string) {
			assert.Equal(t, id, item.Identifier)
			decisions = append(decisions, decision{id, label})
		}),
		Progress: ProgressFunc(func(position, total int, row Row) {
			progress = append(progress, progressCall{position, total, row})
		}),
	})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	p := sess.Progress()
	assert.Equal(t, 1, p.Position)
	assert.Equal(t, 11, p.Total)
	assert.Equal(t, 2, p.Remaining)
	assert.Equal(t, "1 / 11", p.String())

	require.NoError(t, sess.Decide(ctx, "0"))
	require.NoError(t, sess.Decide(ctx, "1"))

	assert.Equal(t, []decision{{"urlA", "0"}, {"urlB", "1"}}, decisions)
	assert.Equal(t, []progressCall{
		{1, 11, Row{"urlA", "0"}},
		{2, 12, Row{"urlB", "1"}},
	}, progress)

	p = sess.Progress()
	assert.True(t, p.Done)
	assert.Equal(t, 0, p.Remaining)
}

func TestSession_AdvanceAfterCompletionIsNoop(t *testing.T) {
	completions := 0
	sess, _, provider := newTestSession(t, Config{
		Records:    []Record{{"only", "x"}},
		OnComplete: func() { completions++ },
	})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.Decide(ctx, "0"))
	require.True(t, sess.Done())

	for i := 0; i < 3; i++ {
		assert.NoError(t, sess.Advance(ctx))
	}
	assert.Equal(t, 1, sess.Position())
	assert.Equal(t, 1, completions)
	assert.Len(t, provider.displayed, 1)
}

func TestSession_DisplayFailureStillAdvances(t *testing.T) {
	provider := &recordingProvider{failFor: map[string]error{
		"urlB": errors.New("archive returned 404"),
	}}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sess, sink, _ := newTestSession(t, Config{Records: twoItems(), Provider: provider, Metrics: metrics})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))

	err := sess.Decide(ctx, "1")
	assert.ErrorIs(t, err, ErrContentUnavailable)
	assert.Equal(t, []Row{{"urlA", "1"}}, sink.rows, "decision was recorded")
	current, ok := sess.Current()
	require.True(t, ok)
	assert.Equal(t, "urlB", current.Identifier)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DisplayFailuresTotal))

	require.NoError(t, sess.Decide(ctx, "0"), "human can still label from the identifier")
	assert.True(t, sess.Done())
}

func TestSession_FetchFallback(t *testing.T) {
	t.Run("unsupported provider", func(t *testing.T) {
		sess, _, _ := newTestSession(t, Config{Records: twoItems()})
		require.NoError(t, sess.Start(context.Background()))
		assert.False(t, sess.CanFetchFallback())
		assert.ErrorIs(t, sess.FetchFallback(context.Background()), ErrFallbackUnsupported)
	})

	t.Run("fetches current item without moving", func(t *testing.T) {
		provider := &fallbackProvider{}
		sess, sink, _ := newTestSession(t, Config{Records: twoItems(), Provider: provider})
		ctx := context.Background()

		assert.ErrorIs(t, sess.FetchFallback(ctx), ErrNotStarted)
		require.NoError(t, sess.Start(ctx))
		require.True(t, sess.CanFetchFallback())

		require.NoError(t, sess.FetchFallback(ctx))
		require.NoError(t, sess.FetchFallback(ctx))
		assert.Equal(t, []string{"urlA", "urlA"}, provider.fetched)
		assert.Equal(t, 0, sess.Position())
		assert.Empty(t, sink.rows)
	})

	t.Run("failure is content unavailable", func(t *testing.T) {
		provider := &fallbackProvider{err: errors.New("connection refused")}
		sess, _, _ := newTestSession(t, Config{Records: twoItems(), Provider: provider})
		ctx := context.Background()
		require.NoError(t, sess.Start(ctx))

		err := sess.FetchFallback(ctx)
		assert.ErrorIs(t, err, ErrContentUnavailable)
		assert.Equal(t, 0, sess.Position())
	})
}

func TestSession_DecideBeforeStart(t *testing.T) {
	sess, sink, _ := newTestSession(t, Config{Records: twoItems()})
	assert.ErrorIs(t, sess.Decide(context.Background(), "0"), ErrNotStarted)
	assert.Empty(t, sink.rows)
}

func TestSession_CloseOnce(t *testing.T) {
	sess, _, provider := newTestSession(t, Config{Records: twoItems()})
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.Equal(t, 1, provider.closed)
}

func TestSession_LogsDecisions(t *testing.T) {
	tl := logging.NewTestLogger()
	sess, _, _ := newTestSession(t, Config{Records: twoItems(), Logger: tl.Underlying()})
	ctx := context.Background()
	require.NoError(t, sess.Start(ctx))
	require.NoError(t, sess.Decide(ctx, "1"))
	require.NoError(t, sess.Decide(ctx, "1"))

	tl.AssertLogged(t, zapcore.InfoLevel, "session created")
	tl.AssertLogged(t, zapcore.InfoLevel, "decision recorded")
	tl.AssertField(t, "decision recorded", "label", "1")
	tl.AssertField(t, "decision recorded", "session.id", sess.ID())
	tl.AssertLogged(t, zapcore.InfoLevel, "finished")
}

func TestSession_ID(t *testing.T) {
	generated, _, _ := newTestSession(t, Config{Records: twoItems()})
	assert.Len(t, generated.ID(), 36)

	named, _, _ := newTestSession(t, Config{Records: twoItems(), ID: "labeling-run-7"})
	assert.Equal(t, "labeling-run-7", named.ID())

	_, err := NewSession(Config{Records: twoItems(), Labels: []string{"0", "1"},
		Sink: &memorySink{}, Provider: &recordingProvider{}, ID: "bad id!"})
	assert.ErrorIs(t, err, ErrConfiguration)
}
