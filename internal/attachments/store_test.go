package attachments

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/docstore"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/users"
)

const testUser = "alice@example.com"

func newTestStores(t *testing.T) (*Store, *users.Store, *docstore.Store) {
	t.Helper()
	docs, err := docstore.New(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	userStore, err := users.NewStore(docs, zap.NewNop())
	require.NoError(t, err)
	s, err := NewStore(docs, userStore, zap.NewNop())
	require.NoError(t, err)
	return s, userStore, docs
}

func pngUpload(data []byte) Upload {
	return Upload{MediaType: "image/png", Data: data, Size: int64(len(data))}
}

func TestAdmit_HappyPath(t *testing.T) {
	s, userStore, docs := newTestStores(t)

	ref, admitted, err := s.Admit(testUser, "conv-1", "msg-1", pngUpload([]byte("fake png")))
	require.NoError(t, err)
	require.True(t, admitted)

	assert.Equal(t, KindImage, ref.Kind)
	assert.Equal(t, "image/png", ref.MediaType)
	assert.Equal(t, filepath.Join("attachments", "conv-1", "msg-1_0.png"), ref.Ref)

	// Blob is on disk under the user namespace.
	_, err = os.Stat(filepath.Join(docs.UserDir(testUser), ref.Ref))
	require.NoError(t, err)

	// Ledger credited.
	p, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.InDelta(t, float64(len("fake png"))/bytesPerMB, p.StorageUsedMB, 1e-12)
}

func TestAdmit_UnderDeclaredSizeChargedAtActual(t *testing.T) {
	s, userStore, _ := newTestStores(t)

	// A declaration smaller than the payload must not write more bytes
	// than the ledger is charged: the larger of the two governs.
	data := make([]byte, 2048)
	ref, admitted, err := s.Admit(testUser, "conv-1", "msg-1", Upload{
		MediaType: "image/png",
		Data:      data,
		Size:      1,
	})
	require.NoError(t, err)
	require.True(t, admitted)
	assert.Equal(t, int64(2048), ref.SizeBytes)

	p, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.InDelta(t, 2048.0/bytesPerMB, p.StorageUsedMB, 1e-12)
}

func TestAdmit_RejectsOversizedPayloadWithSmallDeclaration(t *testing.T) {
	s, userStore, _ := newTestStores(t)

	_, admitted, err := s.Admit(testUser, "conv-1", "msg-1", Upload{
		MediaType: "image/png",
		Data:      make([]byte, int(MaxFileBytes)+1),
		Size:      1,
	})
	require.NoError(t, err)
	assert.False(t, admitted)

	p, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.Zero(t, p.StorageUsedMB)
}

func TestAdmit_KeepsDeclaredName(t *testing.T) {
	s, _, _ := newTestStores(t)

	ref, admitted, err := s.Admit(testUser, "conv-1", "msg-1", Upload{
		MediaType:    "image/png",
		Data:         []byte("x"),
		Size:         1,
		DeclaredName: "../../screenshot.png",
	})
	require.NoError(t, err)
	require.True(t, admitted)

	// The declared name is metadata only; the blob path stays derived
	// from the message id.
	assert.Equal(t, "../../screenshot.png", ref.Name)
	assert.Equal(t, filepath.Join("attachments", "conv-1", "msg-1_0.png"), ref.Ref)
}

func TestAdmit_PDFIsDocumentKind(t *testing.T) {
	s, _, _ := newTestStores(t)

	ref, admitted, err := s.Admit(testUser, "conv-1", "msg-1", Upload{
		MediaType: "application/pdf",
		Data:      []byte("%PDF-1.4"),
		Size:      8,
	})
	require.NoError(t, err)
	require.True(t, admitted)
	assert.Equal(t, KindDocument, ref.Kind)
}

func TestAdmit_RejectsDisallowedMediaType(t *testing.T) {
	s, userStore, _ := newTestStores(t)

	for _, mt := range []string{"text/html", "application/zip", "video/mp4", ""} {
		ref, admitted, err := s.Admit(testUser, "conv-1", "msg-1", Upload{MediaType: mt, Data: []byte("x"), Size: 1})
		require.NoError(t, err, "rejection must not be an error")
		assert.False(t, admitted, "media type %q", mt)
		assert.Nil(t, ref)
	}

	// Nothing admitted, nothing credited.
	p, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.Zero(t, p.StorageUsedMB)
}

func TestAdmit_RejectsOversizedFile(t *testing.T) {
	s, userStore, _ := newTestStores(t)

	// Declared 11 MiB; data does not need to be that large.
	_, admitted, err := s.Admit(testUser, "conv-1", "msg-1", Upload{
		MediaType: "image/png",
		Data:      []byte("tiny"),
		Size:      11 << 20,
	})
	require.NoError(t, err)
	assert.False(t, admitted)

	p, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.Zero(t, p.StorageUsedMB)
}

func TestAdmit_RejectsOverQuota(t *testing.T) {
	s, userStore, _ := newTestStores(t)

	// User already near the 25 MB ceiling.
	require.NoError(t, userStore.AddUsage(testUser, 24.5))

	_, admitted, err := s.Admit(testUser, "conv-1", "msg-1", Upload{
		MediaType: "image/jpeg",
		Data:      []byte("x"),
		Size:      1 << 20, // 1 MiB projected over quota
	})
	require.NoError(t, err)
	assert.False(t, admitted)

	p, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.InDelta(t, 24.5, p.StorageUsedMB, 1e-9)
}

func TestAdmit_Deterministic(t *testing.T) {
	s, userStore, _ := newTestStores(t)

	// Same (mediaType, size, current usage) always yields the same outcome.
	tests := []struct {
		name      string
		mediaType string
		size      int64
		usedMB    float64
		admitted  bool
	}{
		{"allowed small", "image/png", 1024, 0, true},
		{"allowed at ceiling", "image/png", MaxFileBytes, 0, true},
		{"one byte over ceiling", "image/png", MaxFileBytes + 1, 0, false},
		{"disallowed type", "text/plain", 1024, 0, false},
		{"over quota", "image/png", 1 << 20, 24.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := "det-" + tt.name + "@example.com"
			if tt.usedMB > 0 {
				require.NoError(t, userStore.AddUsage(user, tt.usedMB))
			}
			for i := 0; i < 2; i++ {
				_, admitted, err := s.Admit(user, "conv-1", "msg-1", Upload{
					MediaType: tt.mediaType,
					Data:      []byte("d"),
					Size:      tt.size,
				})
				require.NoError(t, err)
				assert.Equal(t, tt.admitted, admitted)
				// Undo the credit so the second run sees identical usage.
				if admitted {
					require.NoError(t, userStore.SubtractUsage(user, float64(tt.size)/bytesPerMB))
				}
			}
		})
	}
}

func TestAdmit_DisambiguatesMultipleUploadsPerMessage(t *testing.T) {
	s, _, _ := newTestStores(t)

	ref1, admitted, err := s.Admit(testUser, "conv-1", "msg-1", pngUpload([]byte("a")))
	require.NoError(t, err)
	require.True(t, admitted)

	ref2, admitted, err := s.Admit(testUser, "conv-1", "msg-1", pngUpload([]byte("b")))
	require.NoError(t, err)
	require.True(t, admitted)

	assert.NotEqual(t, ref1.Ref, ref2.Ref)
}

func TestRelease(t *testing.T) {
	s, userStore, docs := newTestStores(t)

	data := make([]byte, 2048)
	_, admitted, err := s.Admit(testUser, "conv-1", "msg-1", pngUpload(data))
	require.NoError(t, err)
	require.True(t, admitted)
	_, admitted, err = s.Admit(testUser, "conv-1", "msg-2", pngUpload(data))
	require.NoError(t, err)
	require.True(t, admitted)

	before, err := userStore.Get(testUser)
	require.NoError(t, err)

	freed, err := s.Release(testUser, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), freed)

	after, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.InDelta(t, before.StorageUsedMB-float64(freed)/bytesPerMB, after.StorageUsedMB, 1e-9)

	_, err = os.Stat(filepath.Join(docs.UserDir(testUser), "attachments", "conv-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestRelease_NoAttachments(t *testing.T) {
	s, _, _ := newTestStores(t)

	freed, err := s.Release(testUser, "conv-none")
	require.NoError(t, err)
	assert.Zero(t, freed)
}

func TestHasAny(t *testing.T) {
	s, _, _ := newTestStores(t)

	assert.False(t, s.HasAny(testUser, "conv-1"))
	_, _, err := s.Admit(testUser, "conv-1", "msg-1", pngUpload([]byte("a")))
	require.NoError(t, err)
	assert.True(t, s.HasAny(testUser, "conv-1"))
}

// The blob write happens before the ledger credit. A crash between the two
// leaves an orphaned file with an under-reported ledger. This test pins the
// ordering down as the documented gap rather than asserting atomicity.
func TestOrphanedBytesGap(t *testing.T) {
	s, userStore, docs := newTestStores(t)

	_, admitted, err := s.Admit(testUser, "conv-1", "msg-1", pngUpload([]byte("orphan")))
	require.NoError(t, err)
	require.True(t, admitted)

	// Simulate the crash window by rolling the ledger back while the blob
	// stays on disk.
	require.NoError(t, userStore.SubtractUsage(testUser, float64(len("orphan"))/bytesPerMB))

	p, err := userStore.Get(testUser)
	require.NoError(t, err)
	assert.Zero(t, p.StorageUsedMB)

	// Blob survives: disk usage and ledger have diverged.
	entries, err := os.ReadDir(filepath.Join(docs.UserDir(testUser), "attachments", "conv-1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Release reconciles: it frees the actual on-disk bytes and the clamp
	// keeps the ledger from going negative.
	freed, err := s.Release(testUser, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, int64(len("orphan")), freed)

	p, err = userStore.Get(testUser)
	require.NoError(t, err)
	assert.Zero(t, p.StorageUsedMB)
}
