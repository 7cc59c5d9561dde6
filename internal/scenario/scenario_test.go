package scenario

import (
	"testing"
)

func TestParseKind(t *testing.T) {
	for _, s := range []string{"fanout", "chain", "kernel"} {
		kind, err := ParseKind(s)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", s, err)
		}
		if string(kind) != s {
			t.Fatalf("expected kind %q, got %q", s, kind)
		}
	}
	if _, err := ParseKind("warp"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestRunFanout(t *testing.T) {
	rep, err := Run(Spec{Name: "t", Kind: KindFanout, Tasks: 200, Workers: 4}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Tasks members plus nothing else; every spawn must have completed.
	if rep.Spawned != 200 {
		t.Fatalf("expected 200 spawns, got %d", rep.Spawned)
	}
	if rep.Completed != rep.Spawned {
		t.Fatalf("expected all spawns to complete: %d of %d", rep.Completed, rep.Spawned)
	}
	if rep.Raised != 0 {
		t.Fatalf("expected no raises, got %d", rep.Raised)
	}
}

func TestRunChain(t *testing.T) {
	rep, err := Run(Spec{Name: "t", Kind: KindChain, Depth: 50, Workers: 2}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Depth links plus the seed task.
	if rep.Spawned != 51 {
		t.Fatalf("expected 51 spawns, got %d", rep.Spawned)
	}
	if rep.Suspended < 50 {
		t.Fatalf("expected at least 50 suspensions, got %d", rep.Suspended)
	}
}

func TestRunKernel(t *testing.T) {
	rep, err := Run(Spec{Name: "t", Kind: KindKernel, Tasks: 32, Workers: 2}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Completed != 32 {
		t.Fatalf("expected 32 completions, got %d", rep.Completed)
	}
	if rep.Raised != 0 {
		t.Fatalf("expected no kernel failures, got %d", rep.Raised)
	}
}

func TestRunEmitsEvents(t *testing.T) {
	ch := make(chan Event, 1024)
	_, err := Run(Spec{Name: "t", Kind: KindFanout, Tasks: 10, Workers: 2}, ChannelSink{Ch: ch})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(ch)

	done := make(map[string]bool)
	for ev := range ch {
		if ev.Status == StatusDone {
			done[ev.Unit] = true
		}
	}
	if len(done) != 10 {
		t.Fatalf("expected 10 done units, got %d", len(done))
	}
}
