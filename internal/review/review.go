// Package review serves the stored runs, pages and term lists over HTTP
// for human triage.
package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/scrapeking/idgen"
	"github.com/hazyhaar/scrapeking/internal/sink"
	"github.com/hazyhaar/scrapeking/internal/site"
	"github.com/hazyhaar/scrapeking/internal/store"
	"github.com/hazyhaar/scrapeking/lexicon"
)

// Server exposes a store read-only.
type Server struct {
	st     *store.Store
	logger *slog.Logger
	newID  idgen.Generator
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTraceIDs sets the request trace ID generator.
func WithTraceIDs(gen idgen.Generator) Option {
	return func(s *Server) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New creates a Server over st.
func New(st *store.Store, opts ...Option) *Server {
	s := &Server{st: st, logger: slog.Default(), newID: idgen.Default}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(traceID(s.logger, s.newID))
	securityHeaders(r)

	r.Get("/healthz", s.handleHealth)
	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.handleRuns)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(runIDParam)
			r.Get("/", s.handleRun)
			r.Get("/pages", s.handlePages)
			r.Get("/terms", s.handleTerms)
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("review: listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("review: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("review: shutdown: %w", err)
	}
	s.logger.Info("review: stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// fail maps store errors to a status and logs server-side failures.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	requestLogger(r.Context()).Error("review: request failed", "error", err)
	writeError(w, http.StatusInternalServerError, errors.New("internal error"))
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}

func wantText(r *http.Request) bool {
	return r.URL.Query().Get("format") == "txt"
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.st.DB.PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.st.ListRuns(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.st.GetRun(r.Context(), runID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request) {
	id := runID(r)
	if _, err := s.st.GetRun(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	pages, err := s.st.Pages(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if wantText(r) {
		var b strings.Builder
		for _, p := range pages {
			b.WriteString(site.Format(p))
		}
		writeText(w, b.String())
		return
	}
	if pages == nil {
		pages = []*site.PageRecord{}
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) handleTerms(w http.ResponseWriter, r *http.Request) {
	id := runID(r)
	kind := r.URL.Query().Get("kind")
	switch kind {
	case "":
		kind = sink.KindUntranslated
	case sink.KindUntranslated, sink.KindUncovered, sink.KindValues:
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown kind %q", kind))
		return
	}
	if _, err := s.st.GetRun(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	terms, err := s.st.Terms(r.Context(), id, kind)
	if err != nil {
		fail(w, r, err)
		return
	}
	if wantText(r) {
		var b strings.Builder
		if err := lexicon.WriteTerms(&b, terms); err != nil {
			fail(w, r, err)
			return
		}
		writeText(w, b.String())
		return
	}
	if terms == nil {
		terms = []string{}
	}
	writeJSON(w, http.StatusOK, sink.TermList{RunID: id, Kind: kind, Terms: terms})
}
