package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	calls  int
	tokens []string
	err    error
}

func (f *fakeProber) Probe(_ context.Context, token string) error {
	f.calls++
	f.tokens = append(f.tokens, token)
	return f.err
}

func tokenFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "makeradmin.token")
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	}
	return path
}

func TestCheckWithoutFile(t *testing.T) {
	p := &fakeProber{}
	s := New("makeradmin", tokenFile(t, ""), p)

	assert.ErrorIs(t, s.Check(context.Background()), ErrNotConfigured)
	assert.False(t, s.Configured(context.Background()))
	assert.Zero(t, p.calls)
	assert.Empty(t, s.Token())
}

func TestCheckLoadsAndCaches(t *testing.T) {
	p := &fakeProber{}
	s := New("makeradmin", tokenFile(t, "  secret\n"), p)

	require.NoError(t, s.Check(context.Background()))
	require.NoError(t, s.Check(context.Background()))
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, []string{"secret"}, p.tokens)
	assert.Equal(t, "secret", s.Token())
}

func TestExpiredTokenRemovesFile(t *testing.T) {
	path := tokenFile(t, "old")
	s := New("makeradmin", path, &fakeProber{err: ErrTokenExpired})

	assert.ErrorIs(t, s.Check(context.Background()), ErrTokenExpired)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, s.Check(context.Background()), ErrNotConfigured)
}

func TestTransientFailureKeepsFile(t *testing.T) {
	path := tokenFile(t, "good")
	p := &fakeProber{err: errors.New("connection refused")}
	s := New("makeradmin", path, p)

	err := s.Check(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExpired)
	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)

	p.err = nil
	assert.True(t, s.Configured(context.Background()))
}

func TestInvalidate(t *testing.T) {
	path := tokenFile(t, "good")
	s := New("makeradmin", path, &fakeProber{})
	require.True(t, s.Configured(context.Background()))

	s.Invalidate()
	assert.Empty(t, s.Token())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.False(t, s.Configured(context.Background()))
}

func TestLoginPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "slack.token")
	s := New("slack", path, &fakeProber{})

	require.NoError(t, s.Login(context.Background(), " xoxb-1 "))
	assert.Equal(t, "xoxb-1", s.Token())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	fresh := New("slack", path, &fakeProber{})
	assert.True(t, fresh.Configured(context.Background()))
	assert.Equal(t, "xoxb-1", fresh.Token())
}

func TestLoginRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slack.token")
	s := New("slack", path, &fakeProber{err: ErrTokenExpired})

	err := s.Login(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrTokenExpired)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	assert.Error(t, s.Login(context.Background(), "   "))
}
