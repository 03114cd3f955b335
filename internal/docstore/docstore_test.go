package docstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/sanitize"
)

type testDoc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage root is required")
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestStore(t)

	in := testDoc{Name: "hello", Count: 3}
	require.NoError(t, s.Save("alice@example.com", "doc1", in))

	var out testDoc
	require.NoError(t, s.Load("alice@example.com", "doc1", &out))
	assert.Equal(t, in, out)
}

func TestLoad_NotFound(t *testing.T) {
	s := newTestStore(t)

	var out testDoc
	err := s.Load("alice@example.com", "missing", &out)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_CreatesUserNamespaceLazily(t *testing.T) {
	s := newTestStore(t)

	dir := s.UserDir("bob@example.com")
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Save("bob@example.com", "doc1", testDoc{}))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSave_LastWriteWins(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("alice@example.com", "doc1", testDoc{Name: "first"}))
	require.NoError(t, s.Save("alice@example.com", "doc1", testDoc{Name: "second"}))

	var out testDoc
	require.NoError(t, s.Load("alice@example.com", "doc1", &out))
	assert.Equal(t, "second", out.Name)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("alice@example.com", "doc1", testDoc{}))
	require.NoError(t, s.Delete("alice@example.com", "doc1"))

	var out testDoc
	assert.ErrorIs(t, s.Load("alice@example.com", "doc1", &out), ErrNotFound)
	assert.ErrorIs(t, s.Delete("alice@example.com", "doc1"), ErrNotFound)
}

func TestListIDs(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.ListIDs("alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.Save("alice@example.com", "onboarding", testDoc{}))
	require.NoError(t, s.Save("alice@example.com", "task-1", testDoc{}))

	// Subdirectories (e.g. attachments) are not documents.
	require.NoError(t, os.MkdirAll(filepath.Join(s.UserDir("alice@example.com"), "attachments"), 0o750))

	ids, err = s.ListIDs("alice@example.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"onboarding", "task-1"}, ids)
}

func TestListIDs_FreshPerCall(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("alice@example.com", "doc1", testDoc{}))
	ids, err := s.ListIDs("alice@example.com")
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	require.NoError(t, s.Save("alice@example.com", "doc2", testDoc{}))
	ids, err = s.ListIDs("alice@example.com")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestListUserKeys(t *testing.T) {
	s := newTestStore(t)

	keys, err := s.ListUserKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, s.Save("alice@example.com", "doc1", testDoc{}))
	require.NoError(t, s.Save("Bob@Example.com", "doc1", testDoc{}))

	keys, err = s.ListUserKeys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		sanitize.StorageKey("alice@example.com"),
		sanitize.StorageKey("Bob@Example.com"),
	}, keys)
}

func TestByKeyAccessReachesTruncatedNamespaces(t *testing.T) {
	s := newTestStore(t)

	// Uppercase-heavy identifiers escape 3x and overflow the key length
	// limit, so their keys carry a hash suffix and do not decode back.
	long := strings.Repeat("A", 60) + "@EXAMPLE.COM"
	require.NoError(t, s.Save(long, "doc1", testDoc{Name: "reachable"}))

	keys, err := s.ListUserKeys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	_, err = sanitize.DecodeKey(keys[0])
	require.Error(t, err)

	ids, err := s.ListIDsByKey(keys[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1"}, ids)

	var out testDoc
	require.NoError(t, s.LoadByKey(keys[0], "doc1", &out))
	assert.Equal(t, "reachable", out.Name)
}

func TestDistinctUsersDoNotCollide(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Save("a.b@x.com", "doc1", testDoc{Name: "dot"}))
	require.NoError(t, s.Save("a_b@x.com", "doc1", testDoc{Name: "underscore"}))

	var out testDoc
	require.NoError(t, s.Load("a.b@x.com", "doc1", &out))
	assert.Equal(t, "dot", out.Name)
	require.NoError(t, s.Load("a_b@x.com", "doc1", &out))
	assert.Equal(t, "underscore", out.Name)
}

func TestInvalidDocID(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		assert.ErrorIs(t, s.Save("alice@example.com", id, testDoc{}), ErrInvalidDocID, "id %q", id)
	}
}
