// Package persist keeps view state across sessions. Each stateful entity is
// restored from its last snapshot merged over defaults, and every mutation
// schedules one debounced write of its current snapshot.
//
// Persistence is best-effort: failures are logged and the in-memory state
// stays authoritative for the running session.
package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultQuiet is the quiet period after the last mutation before a write.
const DefaultQuiet = 2 * time.Second

// ErrNotFound is returned by a Backend when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// Backend is durable key/value storage for snapshots.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d. Implementations decide on which goroutine f runs;
// the event loop runs it on the loop goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Restore reads the snapshot for key and decodes it over a deep copy of
// defaults: stored fields win, absent fields keep their default. An absent,
// empty or malformed snapshot yields the defaults; the error explains why
// (nil when nothing was stored).
func Restore[T any](ctx context.Context, b Backend, key string, defaults T) (T, error) {
	base, err := clone(defaults)
	if err != nil {
		return defaults, fmt.Errorf("clone defaults for %q: %w", key, err)
	}
	if b == nil {
		return base, nil
	}
	data, err := b.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return base, nil
	}
	if err != nil {
		return base, fmt.Errorf("load snapshot %q: %w", key, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return base, nil
	}
	out, err := clone(defaults)
	if err != nil {
		return base, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("decode snapshot %q: %w", key, err)
	}
	return out, nil
}

// clone deep-copies v through its JSON form so decoding into the copy never
// writes into slices or maps shared with the caller's defaults.
func clone[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}

// Options configures a Persister.
type Options struct {
	Quiet  time.Duration
	Logger *zap.Logger
}

// Persister writes an entity's snapshot to a Backend on a trailing-edge
// debounce. MarkDirty and timer callbacks are expected on a single goroutine;
// the write itself runs in the background.
type Persister struct {
	key      string
	backend  Backend
	sched    Scheduler
	quiet    time.Duration
	log      *zap.Logger
	snapshot func() any

	timer   Timer
	seq     uint64
	writes  sync.WaitGroup
	writeMu sync.Mutex
	written uint64
}

// New returns a persister for key.
func New(key string, backend Backend, sched Scheduler, opts Options) *Persister {
	if opts.Quiet <= 0 {
		opts.Quiet = DefaultQuiet
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Persister{
		key:     key,
		backend: backend,
		sched:   sched,
		quiet:   opts.Quiet,
		log:     opts.Logger.With(zap.String("snapshot", key)),
	}
}

func (p *Persister) Key() string      { return p.key }
func (p *Persister) Backend() Backend { return p.backend }

// Attach sets the projection written on every flush.
func (p *Persister) Attach(snapshot func() any) {
	p.snapshot = snapshot
}

// MarkDirty (re)arms the write timer. Repeated calls within the quiet period
// coalesce into one write of the latest snapshot.
func (p *Persister) MarkDirty() {
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = p.sched.AfterFunc(p.quiet, p.fire)
}

func (p *Persister) fire() {
	p.timer = nil
	data, err := p.encode()
	if err != nil {
		p.log.Warn("encode snapshot", zap.Error(err))
		return
	}
	p.seq++
	seq := p.seq
	p.writes.Add(1)
	go func() {
		defer p.writes.Done()
		if err := p.write(context.Background(), seq, data); err != nil {
			p.log.Warn("persist snapshot", zap.Error(err))
		}
	}()
}

// Flush cancels any pending timer and writes the current snapshot now.
func (p *Persister) Flush(ctx context.Context) error {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	data, err := p.encode()
	if err != nil {
		return err
	}
	p.seq++
	return p.write(ctx, p.seq, data)
}

// Wait blocks until background writes started so far have finished.
func (p *Persister) Wait() {
	p.writes.Wait()
}

// Pending reports whether a write is scheduled.
func (p *Persister) Pending() bool {
	return p.timer != nil
}

func (p *Persister) encode() ([]byte, error) {
	if p.snapshot == nil {
		return nil, fmt.Errorf("no snapshot attached to %q", p.key)
	}
	return json.Marshal(p.snapshot())
}

// write serializes backend writes and drops a snapshot older than one
// already written.
func (p *Persister) write(ctx context.Context, seq uint64, data []byte) error {
	if p.backend == nil {
		return nil
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if seq <= p.written {
		return nil
	}
	if err := p.backend.Save(ctx, p.key, data); err != nil {
		return err
	}
	p.written = seq
	return nil
}
