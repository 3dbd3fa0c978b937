// Package logging provides structured logging for handclass on top of zap.
//
// # Outputs
//
// The classification UI owns the terminal, so the default configuration
// discards log output. Set Path to a file, or to "stderr" when running the
// plain console front-end with stdout reserved for prompts:
//
//	cfg := logging.NewDefaultConfig()
//	cfg.Path = "handclass.log"
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
// # Correlation
//
// Session and item identifiers travel in the context. ContextFields turns
// them into zap fields and Logger.For attaches them:
//
//	ctx = logging.WithSessionID(ctx, sess.ID())
//	ctx = logging.WithItemID(ctx, item.Identifier)
//	logger.For(ctx).Info("item displayed")
//
// When an OpenTelemetry span is active, trace_id and span_id are added too.
//
// # Levels
//
// TraceLevel sits below Debug for per-keystroke detail; LevelFromString
// accepts "trace" in addition to zap's level names.
//
// # Testing
//
// NewTestLogger records entries in memory:
//
//	tl := logging.NewTestLogger()
//	run(tl.Underlying())
//	tl.AssertLogged(t, zapcore.InfoLevel, "decision recorded")
package logging
