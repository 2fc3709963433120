package devstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/memberbooth/internal/directory"
	"github.com/existflow/memberbooth/internal/model"
)

var _ directory.Directory = (*Store)(nil)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.PinCost = bcrypt.MinCost
	require.NoError(t, s.Seed(context.Background()))
	return s
}

func TestSeededMember(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	m, err := s.MemberByTag(ctx, MockTag)
	require.NoError(t, err)
	assert.Equal(t, MockMember(), m)
	assert.Equal(t, "Firstname Lastname", m.Name())

	_, err = s.MemberByTag(ctx, "000000000")
	assert.ErrorIs(t, err, directory.ErrNoMatchingIdentity)

	// Seeding twice keeps one member.
	require.NoError(t, s.Seed(ctx))
	byNumber, err := s.MemberByNumber(ctx, MockMemberNumber)
	require.NoError(t, err)
	assert.Equal(t, m, byNumber)
}

func TestPinLogin(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	m, err := s.MemberByNumberAndPIN(ctx, MockMemberNumber, MockPin)
	require.NoError(t, err)
	assert.Equal(t, MockMemberNumber, m.Number)

	_, err = s.MemberByNumberAndPIN(ctx, MockMemberNumber, "0000")
	assert.ErrorIs(t, err, directory.ErrIncorrectPin)

	_, err = s.MemberByNumberAndPIN(ctx, 1, MockPin)
	assert.ErrorIs(t, err, directory.ErrNoMatchingIdentity)
}

func TestMemberWithoutPin(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	m := model.Member{FirstName: "Ada", LastName: "Lovelace", Number: 1815}
	require.NoError(t, s.AddMember(ctx, m, "", ""))

	got, err := s.MemberByNumber(ctx, 1815)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = s.MemberByNumberAndPIN(ctx, 1815, "")
	assert.ErrorIs(t, err, directory.ErrIncorrectPin)
}

func TestUploadLabel(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

	l, err := model.NewLabel(model.KindBox, MockMember(), model.Options{}, now)
	require.NoError(t, err)
	up, err := s.UploadLabel(ctx, l)
	require.NoError(t, err)

	id := l.Base().ID
	assert.Contains(t, up.PublicURL, DefaultPublicBase)
	assert.Len(t, up.PublicURL, len(DefaultPublicBase)+13)

	stored, err := s.Label(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, up.PublicURL, stored.PublicURL)
	assert.Equal(t, model.KindBox, stored.Label.Kind())
	assert.Equal(t, id, stored.Label.Base().ID)

	ids, err := s.LabelsFor(ctx, MockMemberNumber)
	require.NoError(t, err)
	assert.Equal(t, []uint64{id}, ids)

	_, err = s.Label(ctx, 42)
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	token, err := s.NewToken(ctx)
	require.NoError(t, err)
	assert.Len(t, token, 32)

	ok, err := s.ValidToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ValidToken(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Check(ctx))
}
