package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"riptide/internal/scenario"
)

const noRiptideTomlMessage = "no riptide.toml found\nplease name the scenario explicitly, e.g.:\n  riptide run fanout --tasks 1000"

type manifest struct {
	Path   string
	Root   string
	Config manifestConfig
}

type manifestConfig struct {
	Runtime   runtimeConfig    `toml:"runtime"`
	Trace     traceConfig      `toml:"trace"`
	Scenarios []scenarioConfig `toml:"scenario"`
}

type runtimeConfig struct {
	Workers    int64 `toml:"workers"`
	QueueDepth int64 `toml:"queue_depth"`
}

type traceConfig struct {
	Level     string `toml:"level"`
	Mode      string `toml:"mode"`
	Output    string `toml:"output"`
	RingSize  int64  `toml:"ring_size"`
	Heartbeat string `toml:"heartbeat"`
}

type scenarioConfig struct {
	Name  string `toml:"name"`
	Kind  string `toml:"kind"`
	Tasks int64  `toml:"tasks"`
	Depth int64  `toml:"depth"`
}

func findRiptideToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "riptide.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadManifest(startDir string) (*manifest, bool, error) {
	path, ok, err := findRiptideToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadManifestConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func loadManifestConfig(path string) (manifestConfig, error) {
	var cfg manifestConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return manifestConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	for i, sc := range cfg.Scenarios {
		if strings.TrimSpace(sc.Name) == "" {
			return manifestConfig{}, fmt.Errorf("%s: [[scenario]] #%d: missing name", path, i+1)
		}
		if _, err := scenario.ParseKind(sc.Kind); err != nil {
			return manifestConfig{}, fmt.Errorf("%s: [[scenario]] %q: %w", path, sc.Name, err)
		}
	}
	if meta.IsDefined("trace", "heartbeat") {
		if _, err := time.ParseDuration(cfg.Trace.Heartbeat); err != nil {
			return manifestConfig{}, fmt.Errorf("%s: [trace].heartbeat: %w", path, err)
		}
	}
	return cfg, nil
}

// specFor converts a [[scenario]] entry into a scenario.Spec, applying the
// manifest's [runtime] section for defaults.
func (m *manifest) specFor(sc scenarioConfig) (scenario.Spec, error) {
	kind, err := scenario.ParseKind(sc.Kind)
	if err != nil {
		return scenario.Spec{}, err
	}
	tasks, err := safecast.Conv[int](sc.Tasks)
	if err != nil {
		return scenario.Spec{}, fmt.Errorf("%s: [[scenario]] %q: tasks: %w", m.Path, sc.Name, err)
	}
	depth, err := safecast.Conv[int](sc.Depth)
	if err != nil {
		return scenario.Spec{}, fmt.Errorf("%s: [[scenario]] %q: depth: %w", m.Path, sc.Name, err)
	}
	workers, err := safecast.Conv[int](m.Config.Runtime.Workers)
	if err != nil {
		return scenario.Spec{}, fmt.Errorf("%s: [runtime].workers: %w", m.Path, err)
	}
	queueDepth, err := safecast.Conv[int](m.Config.Runtime.QueueDepth)
	if err != nil {
		return scenario.Spec{}, fmt.Errorf("%s: [runtime].queue_depth: %w", m.Path, err)
	}
	return scenario.Spec{
		Name:       sc.Name,
		Kind:       kind,
		Tasks:      tasks,
		Depth:      depth,
		Workers:    workers,
		QueueDepth: queueDepth,
	}, nil
}

// scenarioByName looks up a [[scenario]] entry.
func (m *manifest) scenarioByName(name string) (scenarioConfig, bool) {
	for _, sc := range m.Config.Scenarios {
		if sc.Name == name {
			return sc, true
		}
	}
	return scenarioConfig{}, false
}
