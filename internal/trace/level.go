package trace

import "fmt"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff Level = iota
	// LevelError emits only via the crash path.
	LevelError
	// LevelPool emits runtime and worker lifecycle events.
	LevelPool
	// LevelTask adds per-task spawn/completion events.
	LevelTask
	// LevelDebug adds per-signal suspension and resumption detail.
	LevelDebug
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPool:
		return "pool"
	case LevelTask:
		return "task"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF":
		return LevelOff, nil
	case "error", "ERROR":
		return LevelError, nil
	case "pool", "POOL":
		return LevelPool, nil
	case "task", "TASK":
		return LevelTask, nil
	case "debug", "DEBUG":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|pool|task|debug)", s)
	}
}

// ShouldEmit reports whether events of the given scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff, LevelError:
		return false
	case LevelPool:
		return scope <= ScopePool
	case LevelTask:
		return scope <= ScopeTask
	case LevelDebug:
		return true
	}
	return false
}
