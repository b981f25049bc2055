// internal/source/store.go
//
// Current raw configuration, swapped atomically on reload.
//
// Context
// -------
// Request handlers call Current() on every hit, so reads must be lock-free.
// The Store keeps an immutable *Snapshot in an atomic.Pointer and replaces
// it wholesale when a reload succeeds.  A failed reload logs, counts, and
// keeps serving the previous snapshot.
//
// Reload triggers
// ---------------
//   - Watch – fsnotify on the domains file's directory, debounced, so
//     editors that write-rename still trigger exactly one reload.
//   - Poll  – fixed interval, used for database sources.
//   - CLI / tests – direct Reload calls.
//
// Concurrent reloads collapse into one loader call via singleflight.
//
// Notes
// -----
//   - Generation starts at 1 for the first successful load and grows by
//     one per swap.  Caches key on it.
//   - Oxford commas, two spaces after periods.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/autoconfig/internal/layer"
	"github.com/yanizio/autoconfig/internal/metrics"
)

// ErrNotLoaded is returned by Current before the first successful load.
var ErrNotLoaded = errors.New("configuration not loaded")

// WatchDebounce is the quiet period after the last file event.
const WatchDebounce = 250 * time.Millisecond

// Loader produces a fresh RawConfig.
type Loader interface {
	Load(ctx context.Context) (*layer.RawConfig, error)
	Describe() string
}

// Snapshot is one loaded configuration.  Never mutated after creation.
type Snapshot struct {
	Raw        *layer.RawConfig
	Generation uint64
	LoadedAt   time.Time
}

// Store owns the current Snapshot.
type Store struct {
	loader Loader
	log    *zap.SugaredLogger

	cur atomic.Pointer[Snapshot]
	gen atomic.Uint64
	sfg singleflight.Group
}

// NewStore returns an empty Store; call Reload before serving.
func NewStore(l Loader, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.S()
	}
	return &Store{loader: l, log: log}
}

// Current returns the active snapshot.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.cur.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

// Reload loads the source and swaps the snapshot on success.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, _ := s.sfg.Do("reload", func() (any, error) {
		rc, err := s.loader.Load(ctx)
		if err != nil {
			metrics.ConfigReloadsTotal.WithLabelValues("error").Inc()
			s.log.Errorw("config reload failed", "source", s.loader.Describe(), "err", err)
			return nil, err
		}
		snap := &Snapshot{
			Raw:        rc,
			Generation: s.gen.Add(1),
			LoadedAt:   time.Now().UTC(),
		}
		s.cur.Store(snap)
		metrics.ConfigReloadsTotal.WithLabelValues("ok").Inc()
		metrics.ConfigGeneration.Set(float64(snap.Generation))
		s.log.Infow("config loaded",
			"source", s.loader.Describe(),
			"generation", snap.Generation,
			"served_domains", len(rc.ServedDomains()),
			"domain_overrides", len(rc.Domain),
			"user_overrides", len(rc.User),
		)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Watch reloads whenever path changes.  It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer w.Close()

	// Watch the directory; editors often replace the file by rename.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	s.log.Infow("watching domains file", "path", abs)

	fire := make(chan struct{}, 1)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.AfterFunc(WatchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				debounce.Reset(WatchDebounce)
			}

		case <-fire:
			_, _ = s.Reload(ctx)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warnw("fsnotify error", "err", err)
		}
	}
}

// Poll reloads every interval until ctx is done.
func (s *Store) Poll(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = s.Reload(ctx)
		}
	}
}
