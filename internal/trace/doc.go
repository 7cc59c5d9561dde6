// Package trace records structured runtime events: worker lifecycle, task
// spawn/completion, suspension and resumption. Events flow through a Tracer,
// which either streams them to a writer, keeps the last N in a ring buffer
// for post-mortem dumps, or both.
//
// Tracing is off by default and the hot path pays one Enabled() check when
// it is. Levels gate by scope: coarse runtime/pool events at low levels,
// per-signal suspension detail only at debug.
package trace
