package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jask/kgview/internal/config"
	"github.com/jask/kgview/internal/database"
	"github.com/jask/kgview/internal/database/repository"
	"github.com/jask/kgview/internal/export"
	"github.com/jask/kgview/internal/feed"
	"github.com/jask/kgview/internal/loop"
	"github.com/jask/kgview/internal/mediator"
	"github.com/jask/kgview/internal/persist"
	"github.com/jask/kgview/internal/reconcile"
	"github.com/jask/kgview/internal/state"
	"github.com/jask/kgview/internal/status"
	"github.com/jask/kgview/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, history, closeStore, err := openStorage(cfg.Storage, logger)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer closeStore()

	lp := loop.New(0)
	popts := persist.Options{Quiet: cfg.Persist.Quiet, Logger: logger}
	controlsP := persist.New(state.Key(cfg.Instance, state.KeyControls), backend, lp, popts)
	listP := persist.New(state.Key(cfg.Instance, state.KeyList), backend, lp, popts)
	mapP := persist.New(state.Key(cfg.Instance, state.KeyMap), backend, lp, popts)
	persisters := []*persist.Persister{controlsP, listP, mapP}

	controls, err := state.RestoreControls(ctx, controlsP)
	logRestore(logger, controlsP.Key(), err)
	list, err := state.RestoreList(ctx, listP)
	logRestore(logger, listP.Key(), err)
	geo, err := state.RestoreMap(ctx, mapP, state.DefaultMap())
	logRestore(logger, mapP.Key(), err)

	var med *mediator.Mediator
	notify := func(n feed.Notification) { med.NotifyData(n) }

	httpFeed := feed.NewHTTPFeed(feed.HTTPOptions{
		BaseURL: cfg.Feed.BaseURL,
		Sources: cfg.FeedSources(),
		Timeout: cfg.Feed.Timeout,
		Logger:  logger,
	}, notify)

	relay := tui.NewRelay()
	med = mediator.New(
		mediator.States{Data: reconcile.New(), Controls: controls, List: list, Map: geo},
		relay.Views(),
		lp,
		mediator.Options{
			HighlightDelay: cfg.UI.HighlightDelay,
			Exporter: &export.FileExporter{
				Path:    cfg.Export.Path,
				Columns: cfg.Export.Columns,
				History: history,
				Logger:  logger,
			},
			Resyncer: httpFeed,
			Logger:   logger,
		},
	)

	app := tui.New(tui.Options{Sort: list.Sort()})
	app.Bind(med)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	relay.Attach(p)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		lp.Run(loopCtx)
	}()
	lp.Post(med.Start)

	feedCtx, stopFeeds := context.WithCancel(ctx)
	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(feedCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("component stopped", zap.String("component", name), zap.Error(err))
			}
		}()
	}

	run("http-feed", httpFeed.Run)
	if cfg.Feed.PushURL != "" {
		run("push-feed", feed.NewPushFeed(cfg.Feed.PushURL, cfg.Feed.Reconnect, notify, logger).Run)
	}
	if len(cfg.Feed.Kafka.Brokers) > 0 && cfg.Feed.Kafka.Topic != "" {
		kf, err := feed.NewKafkaFeed(feed.KafkaOptions{
			Brokers: cfg.Feed.Kafka.Brokers,
			Topic:   cfg.Feed.Kafka.Topic,
			GroupID: cfg.Feed.Kafka.Group,
		}, notify, logger)
		if err != nil {
			logger.Warn("kafka feed disabled", zap.Error(err))
		} else {
			run("kafka-feed", kf.Run)
		}
	}
	if cfg.Status.Addr != "" {
		handler := status.NewHandler(lp, med, history, cfg.Export.Columns, logger)
		run("status", func(ctx context.Context) error {
			return status.Serve(ctx, cfg.Status.Addr, status.Routes(handler), logger)
		})
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Printf("error: %v\n", err)
	}

	stopFeeds()
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := lp.Call(flushCtx, func() { flush(flushCtx, persisters, logger) }); err != nil {
		logger.Warn("flush state", zap.Error(err))
	}
	stopLoop()
	<-loopDone
	for _, ps := range persisters {
		ps.Wait()
	}
}

// flush writes every snapshot with a pending debounce. It runs on the loop.
func flush(ctx context.Context, persisters []*persist.Persister, logger *zap.Logger) {
	for _, ps := range persisters {
		if !ps.Pending() {
			continue
		}
		if err := ps.Flush(ctx); err != nil {
			logger.Warn("flush snapshot", zap.String("snapshot", ps.Key()), zap.Error(err))
		}
	}
}

// openStorage returns the snapshot backend and, for sqlite, the export
// history. A sqlite store that cannot be opened degrades to memory.
func openStorage(cfg config.StorageConfig, logger *zap.Logger) (persist.Backend, *repository.ExportRepo, func(), error) {
	switch cfg.Driver {
	case "file":
		return persist.FileBackend{Dir: cfg.Dir}, nil, func() {}, nil
	case "sqlite", "":
		db, err := database.Open(cfg.Path)
		if err == nil {
			if err = database.RunMigrations(db); err != nil {
				_ = db.Close()
			}
		}
		if err != nil {
			logger.Warn("state storage unavailable, keeping state in memory", zap.String("path", cfg.Path), zap.Error(err))
			return persist.NewMemoryBackend(), nil, func() {}, nil
		}
		return repository.NewSnapshotRepo(db), repository.NewExportRepo(db), func() { _ = db.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func logRestore(logger *zap.Logger, key string, err error) {
	switch {
	case err == nil:
		logger.Debug("state restored", zap.String("snapshot", key))
	case errors.Is(err, persist.ErrNotFound):
		logger.Debug("no stored state, using defaults", zap.String("snapshot", key))
	default:
		logger.Warn("stored state unreadable, using defaults", zap.String("snapshot", key), zap.Error(err))
	}
}
