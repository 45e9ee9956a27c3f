package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source is one HTTP-served payload. Sources with an Interval are refetched
// periodically.
type Source struct {
	Key      string
	Path     string
	Interval time.Duration
}

// HTTPOptions configures an HTTPFeed.
type HTTPOptions struct {
	BaseURL string
	Sources []Source
	Timeout time.Duration
	Client  *http.Client
	Logger  *zap.Logger
}

// HTTPFeed fetches sources from a static file server.
type HTTPFeed struct {
	base    string
	sources map[string]Source
	order   []string
	client  *http.Client
	log     *zap.Logger
	handler Handler
	group   singleflight.Group

	mu  sync.Mutex
	ctx context.Context
}

func NewHTTPFeed(opts HTTPOptions, h Handler) *HTTPFeed {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	f := &HTTPFeed{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		sources: make(map[string]Source, len(opts.Sources)),
		client:  opts.Client,
		log:     opts.Logger,
		handler: h,
		ctx:     context.Background(),
	}
	for _, s := range opts.Sources {
		if _, dup := f.sources[s.Key]; !dup {
			f.order = append(f.order, s.Key)
		}
		f.sources[s.Key] = s
	}
	return f
}

// Fetch downloads one source.
func (f *HTTPFeed) Fetch(ctx context.Context, key string) (Notification, error) {
	src, ok := f.sources[key]
	if !ok {
		return Notification{}, fmt.Errorf("%w: %q", ErrUnknownSource, key)
	}
	url := f.base + "/" + strings.TrimLeft(src.Path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Notification{}, fmt.Errorf("build request for %s: %w", key, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Notification{}, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Notification{}, fmt.Errorf("fetch %s: status %d", key, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Notification{}, fmt.Errorf("read %s: %w", key, err)
	}
	f.log.Debug("fetched source",
		zap.String("key", key),
		zap.String("request_id", reqID),
		zap.Int("bytes", len(body)),
	)
	return Notification{Key: key, Data: body}, nil
}

// Run fetches every source once, then polls the ones with an interval until
// ctx ends.
func (f *HTTPFeed) Run(ctx context.Context) error {
	f.mu.Lock()
	f.ctx = ctx
	f.mu.Unlock()

	for _, key := range f.order {
		f.refresh(ctx, key)
	}
	var wg sync.WaitGroup
	for _, key := range f.order {
		src := f.sources[key]
		if src.Interval <= 0 {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.poll(ctx, src)
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (f *HTTPFeed) poll(ctx context.Context, src Source) {
	ticker := time.NewTicker(src.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.refresh(ctx, src.Key)
		}
	}
}

// Request refetches key in the background. Requests for a key whose fetch
// is still in flight join that fetch instead of starting another.
func (f *HTTPFeed) Request(key string) error {
	if _, ok := f.sources[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, key)
	}
	f.mu.Lock()
	ctx := f.ctx
	f.mu.Unlock()
	go f.refresh(ctx, key)
	return nil
}

func (f *HTTPFeed) refresh(ctx context.Context, key string) {
	_, err, _ := f.group.Do(key, func() (any, error) {
		n, err := f.Fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		f.handler(n)
		return nil, nil
	})
	if err != nil && ctx.Err() == nil {
		f.log.Warn("feed fetch failed", zap.String("key", key), zap.Error(err))
	}
}
