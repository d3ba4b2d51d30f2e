package cartfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jwoody02/shoppy-go/pkg/logger"
	"github.com/jwoody02/shoppy-go/pkg/metrics"
	"github.com/jwoody02/shoppy-go/pkg/types"
)

const defaultDebounce = 100 * time.Millisecond

// Params configure the snapshot store.
type Params struct {
	Dir        string
	ShopDomain string
	Debounce   time.Duration
	Logger     *logger.Logger
	Metrics    *metrics.CartSyncMetrics
}

// Store persists the whole cart snapshot for one shop domain as a
// single JSON file. Writes happen on one background writer, strictly
// in order, and rapid flush requests coalesce into one write of the
// newest state. Replacement is atomic: temp file plus rename.
type Store struct {
	path     string
	logg     *logger.Logger
	metrics  *metrics.CartSyncMetrics
	debounce time.Duration

	mu         sync.Mutex
	pending    *types.CartSnapshot
	needsFlush bool
	writes     int
	closed     bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// New builds the store and starts its writer. The caller owns Close.
func New(params Params) (*Store, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	domain := strings.TrimSpace(params.ShopDomain)
	if domain == "" {
		return nil, fmt.Errorf("shop domain required")
	}
	dir := params.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage dir: %w", err)
	}
	debounce := params.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	s := &Store{
		path:     filepath.Join(dir, domain+".json"),
		logg:     params.Logger,
		metrics:  params.Metrics,
		debounce: debounce,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.writeLoop()
	return s, nil
}

// Path returns the snapshot file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot from disk. A missing file is not an error:
// an empty placeholder is written so later reads never special-case
// absence. An unparsable file degrades to an empty snapshot.
func (s *Store) Load(ctx context.Context) types.CartSnapshot {
	ctx = s.logg.WithShopDomain(ctx, s.domainFromPath())

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		empty := types.CartSnapshot{}
		if writeErr := s.writeSnapshot(empty); writeErr != nil {
			s.logg.Error(ctx, "failed to create cart placeholder", writeErr)
		}
		return empty
	}
	if err != nil {
		s.logg.Error(ctx, "failed to read cart from disk", err)
		return types.CartSnapshot{}
	}

	var snap types.CartSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logg.Error(ctx, "failed to decode cart file, resetting", err)
		return types.CartSnapshot{}
	}
	return snap
}

// Flush schedules an asynchronous write of the given snapshot. The
// caller's goroutine never blocks on I/O. Successive calls before the
// writer fires replace the pending state.
func (s *Store) Flush(snapshot types.CartSnapshot) {
	clone := snapshot.Clone()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = &clone
	if !s.needsFlush {
		s.needsFlush = true
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
}

// WriteCount reports how many physical writes the store has performed.
func (s *Store) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// Close drains any pending write and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.stop)
	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) writeLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.stop:
			s.drain()
			return
		case <-s.wake:
		}

		// coalescing window: mutations landing now fold into one write
		timer := time.NewTimer(s.debounce)
		select {
		case <-s.stop:
			timer.Stop()
			s.drain()
			return
		case <-timer.C:
		}

		s.drain()
	}
}

func (s *Store) drain() {
	s.mu.Lock()
	snap := s.pending
	s.pending = nil
	s.needsFlush = false
	s.mu.Unlock()

	if snap == nil {
		return
	}

	if err := s.writeSnapshot(*snap); err != nil {
		s.metrics.IncFlushError()
		s.logg.Error(context.Background(), "failed to flush cart to disk", err)
		return
	}

	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	s.metrics.IncFlush()
	s.logg.Debug(context.Background(), "flushed cart to disk")
}

func (s *Store) writeSnapshot(snap types.CartSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return WriteFileAtomic(s.path, data)
}

func (s *Store) domainFromPath() string {
	return strings.TrimSuffix(filepath.Base(s.path), ".json")
}

// WriteFileAtomic writes data to a temp file in the target directory
// and renames it over path, so a crash mid-write never leaves a
// partially written file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot file: %w", err)
	}
	return nil
}
