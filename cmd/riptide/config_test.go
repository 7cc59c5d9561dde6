package main

import (
	"os"
	"path/filepath"
	"testing"

	"riptide/internal/scenario"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "riptide.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func TestFindRiptideTomlWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[runtime]\nworkers = 2\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}

	path, ok, err := findRiptideToml(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected to find manifest above %s", nested)
	}
	if filepath.Dir(path) != root {
		t.Fatalf("expected manifest in %s, got %s", root, path)
	}
}

func TestFindRiptideTomlMissing(t *testing.T) {
	_, ok, err := findRiptideToml(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no manifest in an empty tree")
	}
}

func TestLoadManifestConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[runtime]
workers = 4
queue_depth = 128

[trace]
level = "task"
mode = "ring"
ring_size = 1024
heartbeat = "500ms"

[[scenario]]
name = "wide"
kind = "fanout"
tasks = 1000

[[scenario]]
name = "deep"
kind = "chain"
depth = 200
`)

	cfg, err := loadManifestConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Runtime.Workers != 4 || cfg.Runtime.QueueDepth != 128 {
		t.Fatalf("unexpected [runtime]: %+v", cfg.Runtime)
	}
	if cfg.Trace.Level != "task" || cfg.Trace.RingSize != 1024 {
		t.Fatalf("unexpected [trace]: %+v", cfg.Trace)
	}
	if len(cfg.Scenarios) != 2 || cfg.Scenarios[1].Depth != 200 {
		t.Fatalf("unexpected scenarios: %+v", cfg.Scenarios)
	}
}

func TestLoadManifestConfigRejectsBadKind(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[[scenario]]
name = "oops"
kind = "warp"
`)
	if _, err := loadManifestConfig(path); err == nil {
		t.Fatalf("expected error for unknown scenario kind")
	}
}

func TestLoadManifestConfigRejectsBadHeartbeat(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
[trace]
heartbeat = "sometimes"
`)
	if _, err := loadManifestConfig(path); err == nil {
		t.Fatalf("expected error for unparseable heartbeat")
	}
}

func TestSpecForAppliesRuntimeSection(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[runtime]
workers = 3

[[scenario]]
name = "wide"
kind = "fanout"
tasks = 64
`)
	mf, ok, err := loadManifest(dir)
	if err != nil || !ok {
		t.Fatalf("failed to load manifest: ok=%v err=%v", ok, err)
	}

	sc, ok := mf.scenarioByName("wide")
	if !ok {
		t.Fatalf("scenario lookup failed")
	}
	spec, err := mf.specFor(sc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Kind != scenario.KindFanout || spec.Tasks != 64 || spec.Workers != 3 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}
