package asyncrt

import "sync/atomic"

// Stats counts runtime activity. All counters are monotonic.
type Stats struct {
	spawned   atomic.Uint64
	completed atomic.Uint64
	raised    atomic.Uint64
	suspended atomic.Uint64
	resumed   atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the runtime counters.
type StatsSnapshot struct {
	Spawned   uint64
	Completed uint64
	Raised    uint64
	Suspended uint64
	Resumed   uint64
}

// Stats returns a snapshot of the runtime's counters.
func (rt *Runtime) Stats() StatsSnapshot {
	if rt == nil {
		return StatsSnapshot{}
	}
	return StatsSnapshot{
		Spawned:   rt.stats.spawned.Load(),
		Completed: rt.stats.completed.Load(),
		Raised:    rt.stats.raised.Load(),
		Suspended: rt.stats.suspended.Load(),
		Resumed:   rt.stats.resumed.Load(),
	}
}
