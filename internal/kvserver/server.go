// Package kvserver is a small HTTP key-value store. Clients get a bearer
// token from /register and use it to save and load opaque values by key.
package kvserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/byronguina/tasktracker/internal/logging"
)

// Server holds values in memory for clients that present a valid token.
type Server struct {
	secret []byte
	log    *logrus.Entry

	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty Server that signs tokens with secret.
func New(secret []byte, log *logrus.Entry) *Server {
	if log == nil {
		log = logging.Discard()
	}
	return &Server{
		secret: secret,
		log:    log,
		data:   make(map[string][]byte),
	}
}

// Handler returns the routes:
//
//	GET  /register     issue a token
//	POST /save/{key}   store the request body under key
//	GET  /load/{key}   return the value stored under key
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /register", s.register)
	mux.HandleFunc("POST /save/{key}", s.requireToken(s.save))
	mux.HandleFunc("GET /load/{key}", s.requireToken(s.load))
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("kv server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	const op = "kvserver.register"

	token, err := GenerateToken(s.secret)
	if err != nil {
		s.log.WithField("operation", op).WithError(err).Error("failed to sign token")
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	s.log.WithField("operation", op).Debug("token issued")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(token))
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	const op = "kvserver.save"
	key := r.PathValue("key")
	log := s.log.WithFields(logrus.Fields{"operation": op, "key": key})

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.WithError(err).Warn("failed to read body")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty value", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.data[key] = body
	s.mu.Unlock()

	log.WithField("bytes", len(body)).Debug("value saved")
	w.WriteHeader(http.StatusOK)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	s.mu.RLock()
	value, ok := s.data[key]
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "key not found: "+key, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(value)
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if _, err := ParseToken(s.secret, strings.TrimPrefix(h, "Bearer ")); err != nil {
			s.log.WithError(err).Debug("rejected token")
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
