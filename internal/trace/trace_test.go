package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseLevelRoundTrip(t *testing.T) {
	for _, s := range []string{"off", "error", "pool", "task", "debug"} {
		level, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", s, err)
		}
		if level.String() != s {
			t.Fatalf("expected %q, got %q", s, level.String())
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLevelShouldEmit(t *testing.T) {
	if LevelOff.ShouldEmit(ScopeRuntime) {
		t.Fatalf("off must emit nothing")
	}
	if LevelPool.ShouldEmit(ScopeTask) {
		t.Fatalf("pool level must not emit task scope")
	}
	if !LevelTask.ShouldEmit(ScopePool) {
		t.Fatalf("task level must emit pool scope")
	}
	if LevelTask.ShouldEmit(ScopeSignal) {
		t.Fatalf("task level must not emit signal scope")
	}
	if !LevelDebug.ShouldEmit(ScopeSignal) {
		t.Fatalf("debug level must emit everything")
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"stream", "ring", "both"} {
		mode, err := ParseMode(s)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", s, err)
		}
		if mode.String() != s {
			t.Fatalf("expected %q, got %q", s, mode.String())
		}
	}
	if _, err := ParseMode("tee"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestRingSnapshotBeforeWrap(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	for i := 0; i < 3; i++ {
		ring.Emit(&Event{Time: time.Now(), Kind: KindPoint, Scope: ScopeTask, Name: "ev"})
	}
	events := ring.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("snapshot out of order at %d: %d then %d", i, events[i-1].Seq, events[i].Seq)
		}
	}
}

func TestRingWrapKeepsNewest(t *testing.T) {
	ring := NewRingTracer(4, LevelDebug)
	for i := 0; i < 10; i++ {
		ring.Emit(&Event{Time: time.Now(), Kind: KindPoint, Scope: ScopeTask, Name: "ev"})
	}
	events := ring.Snapshot()
	if len(events) != 4 {
		t.Fatalf("expected capacity-sized snapshot, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("wrapped snapshot out of order at %d", i)
		}
	}
}

func TestRingRespectsLevel(t *testing.T) {
	ring := NewRingTracer(8, LevelPool)
	ring.Emit(&Event{Kind: KindPoint, Scope: ScopeSignal, Name: "suspend"})
	ring.Emit(&Event{Kind: KindPoint, Scope: ScopePool, Name: "worker:start"})
	events := ring.Snapshot()
	if len(events) != 1 || events[0].Name != "worker:start" {
		t.Fatalf("expected only the pool event, got %v", events)
	}
}

func TestStreamTextFormat(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewStreamTracer(&buf, LevelDebug, FormatText)
	tracer.Emit(&Event{Kind: KindPoint, Scope: ScopeTask, Name: "task:spawn", Detail: "frame 1"})
	out := buf.String()
	if !strings.Contains(out, "task:spawn") || !strings.Contains(out, "(frame 1)") {
		t.Fatalf("unexpected text output: %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("text output must be newline-terminated")
	}
}

func TestStreamNDJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	tracer.Emit(&Event{Time: time.Now(), Kind: KindPoint, Scope: ScopePool, Name: "worker:stop"})

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["name"] != "worker:stop" || decoded["scope"] != "pool" {
		t.Fatalf("unexpected payload: %v", decoded)
	}
}

func TestSpanPairsBeginAndEnd(t *testing.T) {
	ring := NewRingTracer(8, LevelDebug)
	span := Begin(ring, ScopeRuntime, "run", 0)
	span.WithExtra("workers", "4")
	if span.End("ok") < 0 {
		t.Fatalf("negative duration")
	}

	events := ring.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected begin+end, got %d events", len(events))
	}
	if events[0].Kind != KindSpanBegin || events[1].Kind != KindSpanEnd {
		t.Fatalf("unexpected kinds: %v, %v", events[0].Kind, events[1].Kind)
	}
	if events[0].SpanID == 0 || events[0].SpanID != events[1].SpanID {
		t.Fatalf("span IDs do not pair: %d vs %d", events[0].SpanID, events[1].SpanID)
	}
	if events[1].Extra["workers"] != "4" {
		t.Fatalf("extra lost: %v", events[1].Extra)
	}
}

func TestMultiFansOut(t *testing.T) {
	var buf bytes.Buffer
	stream := NewStreamTracer(&buf, LevelDebug, FormatText)
	ring := NewRingTracer(8, LevelDebug)
	multi := NewMultiTracer(LevelDebug, stream, ring)

	Point(multi, ScopeTask, "task:done", "")
	if buf.Len() == 0 {
		t.Fatalf("stream saw nothing")
	}
	if len(ring.Snapshot()) != 1 {
		t.Fatalf("ring saw nothing")
	}
}

func TestNopIsDisabled(t *testing.T) {
	if Nop.Enabled() {
		t.Fatalf("nop tracer must report disabled")
	}
	// Must not panic.
	Nop.Emit(&Event{Kind: KindPoint, Scope: ScopeTask, Name: "ev"})
	Point(Nop, ScopeTask, "ev", "")
}

func TestNewSelectsMode(t *testing.T) {
	var buf bytes.Buffer
	tracer, err := New(Config{Level: LevelTask, Mode: ModeStream, Output: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tracer.(*StreamTracer); !ok {
		t.Fatalf("expected StreamTracer, got %T", tracer)
	}

	tracer, err = New(Config{Level: LevelTask, Mode: ModeRing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := tracer.(*RingTracer); !ok {
		t.Fatalf("expected RingTracer, got %T", tracer)
	}

	tracer, err = New(Config{Level: LevelOff, Mode: ModeRing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer.Enabled() {
		t.Fatalf("level off must produce a disabled tracer")
	}
}
