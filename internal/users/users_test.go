package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/docstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	docs, err := docstore.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	s, err := NewStore(docs, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNewStore_RequiresDocs(t *testing.T) {
	_, err := NewStore(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document store is required")
}

func TestGet_FreshUser(t *testing.T) {
	s := newTestStore(t)

	p, err := s.Get("new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", p.Email)
	assert.Zero(t, p.StorageUsedMB)
	assert.False(t, p.OnboardingComplete)
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)

	p := &Profile{Email: "alice@example.com", StorageUsedMB: 1.5}
	require.NoError(t, s.Save(p))
	assert.False(t, p.CreatedAt.IsZero())

	got, err := s.Get("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.StorageUsedMB)
	assert.Equal(t, p.CreatedAt.Unix(), got.CreatedAt.Unix())
}

func TestUsageLedger(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddUsage("alice@example.com", 2.0))
	require.NoError(t, s.AddUsage("alice@example.com", 0.5))

	p, err := s.Get("alice@example.com")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, p.StorageUsedMB, 1e-9)

	require.NoError(t, s.SubtractUsage("alice@example.com", 1.0))
	p, err = s.Get("alice@example.com")
	require.NoError(t, err)
	assert.InDelta(t, 1.5, p.StorageUsedMB, 1e-9)
}

func TestSubtractUsage_ClampsAtZero(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AddUsage("alice@example.com", 1.0))
	require.NoError(t, s.SubtractUsage("alice@example.com", 5.0))

	p, err := s.Get("alice@example.com")
	require.NoError(t, err)
	assert.Zero(t, p.StorageUsedMB)
}

func TestSetOnboardingComplete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SetOnboardingComplete("alice@example.com", true))
	p, err := s.Get("alice@example.com")
	require.NoError(t, err)
	assert.True(t, p.OnboardingComplete)

	require.NoError(t, s.SetOnboardingComplete("alice@example.com", false))
	p, err = s.Get("alice@example.com")
	require.NoError(t, err)
	assert.False(t, p.OnboardingComplete)
}
