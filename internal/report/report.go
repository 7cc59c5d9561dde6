// Package report persists benchmark run reports as msgpack payloads under a
// cache directory, so separate invocations can compare runs.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when the Report format changes.
const reportSchemaVersion uint16 = 1

// Report captures one scenario run: the configuration it ran under and the
// runtime counters it produced.
type Report struct {
	// Schema version for safe invalidation when the format changes.
	Schema uint16

	// Scenario identity and configuration echo.
	Scenario string
	Workers  int
	Tasks    int
	Depth    int

	// Runtime counters.
	Spawned   uint64
	Completed uint64
	Raised    uint64
	Suspended uint64
	Resumed   uint64

	// Timing.
	StartedAt time.Time
	ElapsedNS int64
}

// Elapsed returns the run's wall time.
func (r *Report) Elapsed() time.Duration {
	return time.Duration(r.ElapsedNS)
}

// Throughput returns completed tasks per second, 0 for an empty run.
func (r *Report) Throughput() float64 {
	if r.ElapsedNS <= 0 {
		return 0
	}
	return float64(r.Completed) / (float64(r.ElapsedNS) / float64(time.Second))
}

// Store persists reports on disk. Thread-safe for concurrent access.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// Open initializes a store at the standard cache location for app.
func Open(app string) (*Store, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenAt(filepath.Join(base, app, "reports"))
}

// OpenAt initializes a store at an explicit directory.
func OpenAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, name+".mp")
}

// Put serializes and writes a report atomically.
func (s *Store) Put(name string, r *Report) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *r
	stored.Schema = reportSchemaVersion

	p := s.pathFor(name)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name()) //nolint:errcheck // gone after rename

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&stored); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads and deserializes a report. A missing file or a schema mismatch
// is a miss, not an error.
func (s *Store) Get(name string, out *Report) (bool, error) {
	if s == nil {
		return false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.pathFor(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close() //nolint:errcheck // read-only file

	dec := msgpack.NewDecoder(f)
	if err := dec.Decode(out); err != nil {
		return false, fmt.Errorf("decode report %q: %w", name, err)
	}
	if out.Schema != reportSchemaVersion {
		return false, nil
	}
	return true, nil
}

// List returns the stored report names, sorted.
func (s *Store) List() ([]string, error) {
	if s == nil {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mp") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".mp"))
	}
	sort.Strings(names)
	return names, nil
}

// DropAll removes every stored report.
func (s *Store) DropAll() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(s.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
