// Package session tracks whether a backend credential is loaded and trusted.
// Both the member directory client and the chat notifier keep one.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/existflow/memberbooth/internal/logger"
)

var (
	// ErrTokenExpired means the backend rejected the token. It is distinct
	// from network failures, which leave the token in place.
	ErrTokenExpired = errors.New("session: token expired")
	// ErrNotConfigured means no token has been loaded yet.
	ErrNotConfigured = errors.New("session: not configured")
)

// Prober validates a token with one cheap backend call.
type Prober interface {
	Probe(ctx context.Context, token string) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, token string) error

func (f ProberFunc) Probe(ctx context.Context, token string) error { return f(ctx, token) }

// Session is a token cell backed by a file. It starts unconfigured, becomes
// configured once a token from the file or from Login passes the probe, and
// reverts when Invalidate is called.
type Session struct {
	mu         sync.Mutex
	name       string
	path       string
	prober     Prober
	token      string
	configured bool
}

// New creates an unconfigured session reading its token from path.
func New(name, path string, prober Prober) *Session {
	return &Session{name: name, path: path, prober: prober}
}

// Check loads and probes the token if the session is not yet configured.
// It returns nil once configured, ErrNotConfigured when there is no token
// file, ErrTokenExpired when the token was rejected (the file is removed),
// or the probe's error for transient failures (the file is kept).
func (s *Session) Check(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.configured {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotConfigured
	}
	if err != nil {
		return fmt.Errorf("read %s token: %w", s.name, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return ErrNotConfigured
	}

	if err := s.prober.Probe(ctx, token); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			logger.Warn("Stored token was rejected, removing it", logger.F("session", s.name), logger.F("path", s.path))
			s.removeFile()
			return ErrTokenExpired
		}
		logger.Warn("Could not validate stored token", logger.F("session", s.name), logger.Err(err))
		return err
	}

	s.token = token
	s.configured = true
	logger.Info("Token loaded", logger.F("session", s.name))
	return nil
}

// Configured reports whether a validated token is loaded, loading it lazily.
func (s *Session) Configured(ctx context.Context) bool {
	return s.Check(ctx) == nil
}

// Token returns the current token, empty when unconfigured.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.configured {
		return ""
	}
	return s.token
}

// Invalidate forgets the token and deletes its file. Clients call it when an
// operation reports the token invalid.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Warn("Token invalidated", logger.F("session", s.name))
	s.token = ""
	s.configured = false
	s.removeFile()
}

// Login probes token and, when accepted, persists it and marks the session
// configured.
func (s *Session) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if err := s.prober.Probe(ctx, token); err != nil {
		return fmt.Errorf("%s login: %w", s.name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeToken(s.path, token); err != nil {
		return fmt.Errorf("save %s token: %w", s.name, err)
	}
	s.token = token
	s.configured = true
	logger.Info("Login successful", logger.F("session", s.name))
	return nil
}

// Path returns the token file location.
func (s *Session) Path() string { return s.path }

func (s *Session) removeFile() {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error("Could not remove token file", logger.F("path", s.path), logger.Err(err))
	}
}

// writeToken replaces the token file atomically.
func writeToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
