// Package status serves a read-only HTTP view of the running session.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jask/kgview/internal/database/repository"
	"github.com/jask/kgview/internal/export"
	"github.com/jask/kgview/internal/mediator"
	"github.com/jask/kgview/internal/weighing"
)

// Caller runs fn on the state loop and waits for it.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// Session is the state the handlers read.
type Session interface {
	Status() mediator.Status
	ActiveRecords() []weighing.Record
}

// Handler serves the status endpoints.
type Handler struct {
	Loop    Caller
	Session Session
	History *repository.ExportRepo
	Columns []export.Column
	Log     *zap.Logger
}

func NewHandler(loop Caller, session Session, history *repository.ExportRepo, columns []export.Column, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Loop: loop, Session: session, History: history, Columns: columns, Log: logger}
}

// Routes returns the status router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.ServeHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.ServeState)
		r.Get("/export.csv", h.ServeExport)
		r.Get("/exports", h.ServeExports)
	})
	return r
}

func (h *Handler) ServeHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// ServeState handles GET /api/state.
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	var st mediator.Status
	if err := h.Loop.Call(r.Context(), func() { st = h.Session.Status() }); err != nil {
		h.fail(w, r, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, st)
}

// ServeExport handles GET /api/export.csv with the rows passing the filter.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	var records []weighing.Record
	if err := h.Loop.Call(r.Context(), func() { records = h.Session.ActiveRecords() }); err != nil {
		h.fail(w, r, http.StatusServiceUnavailable, err)
		return
	}
	columns := h.Columns
	if len(columns) == 0 {
		columns = export.DefaultColumns()
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="wegingen.csv"`)
	if err := export.CSV(w, records, columns); err != nil {
		h.Log.Warn("write csv", zap.Error(err))
	}
}

// ServeExports handles GET /api/exports?limit=n.
func (h *Handler) ServeExports(w http.ResponseWriter, r *http.Request) {
	if h.History == nil {
		writeJSON(w, []repository.Export{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	exports, err := h.History.Recent(ctx, limit)
	if err != nil {
		h.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	if exports == nil {
		exports = []repository.Export{}
	}
	writeJSON(w, exports)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code int, err error) {
	h.Log.Warn("status request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	http.Error(w, http.StatusText(code), code)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Serve listens on addr until ctx ends.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("status server listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
