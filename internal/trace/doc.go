// Package trace is the logging layer of the IR builder.
//
// Lowering and the CLI emit span events through a Tracer carried in a
// context.Context. Tracing is off by default and costs a nil check per span
// when disabled.
//
// # Levels
//
//   - LevelOff: nothing
//   - LevelError: only the ring buffer dump after an internal error
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: one span per lowered function
//   - LevelDebug: one span per control construct (if, loop, switch)
//
// # Usage
//
//	tr, _ := trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeStream})
//	ctx = trace.WithTracer(ctx, tr)
//
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "lower", 0)
//	defer span.End("")
package trace
