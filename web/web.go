// Package web serves the ledger state over a JSON HTTP API and accepts
// append mutations. Readers get the controller's current snapshot; mutation
// endpoints write through the mutation service and wait for the watcher
// rebuild before answering with the new snapshot version.
//
// When the ZHANG_AUTH_TOKEN environment variable is set, mutation endpoints
// require it as a bearer token. Read endpoints are always open; bind the
// server to localhost if the ledger is private.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KushNee/zhang/controller"
	"github.com/KushNee/zhang/mutation"
)

// rebuildTimeout bounds how long a mutation waits for the watcher to pick
// up its own write.
const rebuildTimeout = 10 * time.Second

// Server exposes a controller and a mutation service over HTTP.
type Server struct {
	Host      string
	Port      int
	AuthToken string

	// WatchEnabled tells mutation handlers whether the watcher will rebuild
	// for them; without it they trigger the rebuild themselves.
	WatchEnabled bool

	controller *controller.Controller
	mutations  *mutation.Service
}

// New creates a server for the given controller and mutation service.
func New(ctl *controller.Controller, mutations *mutation.Service) *Server {
	return &Server{
		Host:         "127.0.0.1",
		Port:         8000,
		WatchEnabled: true,
		controller:   ctl,
		mutations:    mutations,
	}
}

// Start begins serving; it blocks until the listener fails or the context
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.Host, s.Port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Router builds the HTTP route table.
func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/accounts", s.handleAccounts)
	mux.HandleFunc("GET /api/balances", s.handleBalances)
	mux.HandleFunc("GET /api/journal", s.handleJournal)
	mux.HandleFunc("GET /api/errors", s.handleErrors)
	mux.HandleFunc("GET /api/statistics", s.handleStatistics)
	mux.HandleFunc("GET /api/events", s.handleSSE)

	mux.HandleFunc("POST /api/transactions", s.requireAuth(s.handleAppendTransaction))
	mux.HandleFunc("POST /api/balances", s.requireAuth(s.handleAppendBalance))
	mux.HandleFunc("POST /api/accounts/{account}/documents", s.requireAuth(s.handleUploadDocument))

	return mux
}

// requireAuth rejects mutation requests without the configured bearer token.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AuthToken != "" {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.AuthToken)) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// awaitRebuild waits until the snapshot includes a mutation written while
// the version was prev. With the watcher disabled the rebuild runs inline.
func (s *Server) awaitRebuild(ctx context.Context, prev uint64) error {
	if !s.WatchEnabled {
		return s.controller.Rebuild(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, rebuildTimeout)
	defer cancel()
	_, err := s.controller.WaitForVersion(waitCtx, prev)
	return err
}

// handleSSE streams a "reload" event to clients after every rebuild.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.controller.Subscribe()
	defer s.controller.Unsubscribe(ch)

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case version := <-ch:
			_, _ = fmt.Fprintf(w, "event: reload\ndata: %d\n\n", version)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
