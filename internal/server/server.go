package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	sse "github.com/r3labs/sse/v2"
	"github.com/samber/lo"
	"github.com/wheelibin/glow/internal/constants"
	"github.com/wheelibin/glow/internal/glowerrors"
	"github.com/wheelibin/glow/internal/models"
)

type documentRepo interface {
	Get(ref models.DocumentRef) (models.Document, error)
	List(collection string) ([]models.Document, error)
	Merge(ref models.DocumentRef, fields map[string]json.RawMessage) (models.Document, error)
}

// the collections served, each has its own change stream
var Collections = []string{constants.CollectionStates, constants.CollectionUser, constants.CollectionDisplay}

type Options struct {
	// requests per minute per client address, 0 disables rate limiting
	RequestsPerMinute int
}

// Server is the document store: partial field writes over http, and a server
// sent event stream per collection carrying the full document after every write.
type Server struct {
	logger *log.Logger
	repo   documentRepo
	events *sse.Server
	router chi.Router

	// held from merge to publish so events go out in commit order
	writeMu sync.Mutex
}

func NewServer(logger *log.Logger, repo documentRepo, opts Options) *Server {
	events := sse.New()
	// subscribers read the current documents over http, only new changes go on the stream
	events.AutoReplay = false
	for _, c := range Collections {
		events.CreateStream(c)
	}

	s := &Server{logger: logger, repo: repo, events: events}

	r := chi.NewRouter()
	r.Use(s.requestLogging)
	if opts.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(opts.RequestsPerMinute, time.Minute))
	}

	r.Get("/health", s.health)
	r.Get("/v1/events", s.events.ServeHTTP)
	r.Route("/v1/documents/{collection}", func(r chi.Router) {
		r.Use(knownCollection)
		r.Get("/", s.listDocuments)
		r.Get("/{id}", s.getDocument)
		r.Patch("/{id}", s.patchDocument)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close ends every open event stream
func (s *Server) Close() {
	s.events.Close()
}

// ListenAndServe serves until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// no write timeout, event streams are long lived
		IdleTimeout: 60 * time.Second,
	}

	errChannel := make(chan error, 1)
	go func() {
		s.logger.Info("Document store listening", "address", addr)
		errChannel <- srv.ListenAndServe()
	}()

	select {
	case err := <-errChannel:
		return err
	case <-ctx.Done():
		s.logger.Info("Document store shutting down")
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.repo.List(chi.URLParam(r, "collection"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.repo.Get(refFromRequest(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) patchDocument(w http.ResponseWriter, r *http.Request) {
	ref := refFromRequest(r)

	fields := map[string]json.RawMessage{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.writeError(w, glowerrors.InvalidInputf("update for %s should be a json object", ref))
		return
	}

	s.writeMu.Lock()
	doc, err := s.repo.Merge(ref, fields)
	if err != nil {
		s.writeMu.Unlock()
		s.writeError(w, err)
		return
	}
	s.publish(doc)
	s.writeMu.Unlock()

	s.logger.Info("Document updated", "ref", ref, "fields", lo.Keys(fields), "client", r.Header.Get(constants.ClientIDHeader))
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) publish(doc models.Document) {
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("error encoding change event", "ref", doc.Ref(), "err", err)
		return
	}
	s.events.Publish(doc.Collection, &sse.Event{Data: data})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case glowerrors.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case glowerrors.IsInvalidInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error(err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func knownCollection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		collection := chi.URLParam(r, "collection")
		if !lo.Contains(Collections, collection) {
			http.Error(w, fmt.Sprintf("unknown collection %q", collection), http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func refFromRequest(r *http.Request) models.DocumentRef {
	return models.DocumentRef{Collection: chi.URLParam(r, "collection"), ID: chi.URLParam(r, "id")}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DefaultDocuments are written on first start so subscribers always see every collection
func DefaultDocuments() []models.Document {
	return []models.Document{
		{Collection: constants.CollectionStates, ID: constants.DocumentControlType, Data: json.RawMessage(`{"type":"USER"}`)},
		{Collection: constants.CollectionUser, ID: constants.DocumentConfig, Data: json.RawMessage(`{"color":{"r":0,"g":0,"b":0}}`)},
		{Collection: constants.CollectionDisplay, ID: constants.DocumentConfig, Data: json.RawMessage(`{"pattern":"SOLID"}`)},
	}
}
