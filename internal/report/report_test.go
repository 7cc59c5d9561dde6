package report

import (
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	in := &Report{
		Scenario:  "fanout",
		Workers:   4,
		Tasks:     1000,
		Depth:     2,
		Spawned:   1001,
		Completed: 1001,
		Suspended: 1000,
		Resumed:   1000,
		StartedAt: time.Now().UTC().Truncate(time.Second),
		ElapsedNS: int64(250 * time.Millisecond),
	}
	if err := store.Put("fanout", in); err != nil {
		t.Fatalf("failed to put report: %v", err)
	}

	var out Report
	ok, err := store.Get("fanout", &out)
	if err != nil {
		t.Fatalf("failed to get report: %v", err)
	}
	if !ok {
		t.Fatalf("expected a hit for stored report")
	}
	if out.Scenario != in.Scenario || out.Completed != in.Completed || out.ElapsedNS != in.ElapsedNS {
		t.Fatalf("round-trip mismatch: want %+v, got %+v", in, out)
	}
	if out.Schema != reportSchemaVersion {
		t.Fatalf("expected schema %d, got %d", reportSchemaVersion, out.Schema)
	}
}

func TestStoreMissingIsAMiss(t *testing.T) {
	store, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	var out Report
	ok, err := store.Get("nope", &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected a miss for a report that was never stored")
	}
}

func TestStoreList(t *testing.T) {
	store, err := OpenAt(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	for _, name := range []string{"chain", "fanout", "kernel"} {
		if err := store.Put(name, &Report{Scenario: name}); err != nil {
			t.Fatalf("failed to put %q: %v", name, err)
		}
	}
	names, err := store.List()
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(names) != 3 || names[0] != "chain" || names[1] != "fanout" || names[2] != "kernel" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestThroughput(t *testing.T) {
	r := &Report{Completed: 500, ElapsedNS: int64(500 * time.Millisecond)}
	if got := r.Throughput(); got != 1000 {
		t.Fatalf("expected 1000 tasks/s, got %v", got)
	}
	zero := &Report{}
	if got := zero.Throughput(); got != 0 {
		t.Fatalf("expected 0 for empty run, got %v", got)
	}
}
