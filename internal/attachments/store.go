// Package attachments persists binary message attachments keyed by
// (user, conversation, message) and feeds the per-user quota ledger.
//
// Admission is a deliberate best-effort policy: an attachment that fails
// the type, size, or quota check is silently dropped and the rest of the
// message proceeds. Only storage I/O failures are errors.
package attachments

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/docstore"
	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/users"
)

const (
	// MaxFileBytes is the per-file admission ceiling.
	MaxFileBytes int64 = 10 << 20 // 10 MiB

	// QuotaLimitMB is the fixed per-user storage quota.
	QuotaLimitMB = 25.0

	bytesPerMB = 1024 * 1024

	// attachmentsDirName is the side-storage directory inside a user's
	// namespace, next to the conversation documents.
	attachmentsDirName = "attachments"
)

// Kind classifies an admitted attachment for message content parts.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
)

// allowedMediaTypes is the admission allow-list. Anything else is rejected.
var allowedMediaTypes = map[string]struct {
	kind Kind
	ext  string
}{
	"image/jpeg":      {KindImage, ".jpg"},
	"image/png":       {KindImage, ".png"},
	"image/gif":       {KindImage, ".gif"},
	"image/webp":      {KindImage, ".webp"},
	"application/pdf": {KindDocument, ".pdf"},
}

// Upload is a candidate attachment submitted with a message. Admission and
// the ledger charge use the larger of the declared Size and len(Data), so
// an under-declared upload cannot write more bytes than it is charged for.
type Upload struct {
	MediaType    string
	Data         []byte
	Size         int64
	DeclaredName string
}

// StoredRef points at an admitted attachment blob. Ref is relative to the
// owning user's namespace directory; Name is the caller-declared filename,
// kept as display metadata only and never used as a path component.
type StoredRef struct {
	Ref       string `json:"ref"`
	Name      string `json:"name,omitempty"`
	Kind      Kind   `json:"kind"`
	MediaType string `json:"media_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// Store writes attachment blobs and keeps the quota ledger in step.
type Store struct {
	docs   *docstore.Store
	users  *users.Store
	logger *zap.Logger
}

// NewStore creates an attachment store sharing the document store's
// per-user layout.
func NewStore(docs *docstore.Store, userStore *users.Store, logger *zap.Logger) (*Store, error) {
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if userStore == nil {
		return nil, errors.New("user store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{docs: docs, users: userStore, logger: logger}, nil
}

// convDir returns the attachment namespace for one conversation.
func (s *Store) convDir(userID, convID string) string {
	return filepath.Join(s.docs.UserDir(userID), attachmentsDirName, convID)
}

// Admit runs the admission checks in order (media type, per-file ceiling,
// quota projection) and, only if all pass, writes the blob and credits the
// ledger. The second return reports whether the upload was admitted;
// rejection is not an error.
func (s *Store) Admit(userID, convID, msgID string, up Upload) (*StoredRef, bool, error) {
	if strings.ContainsAny(convID, "/\\") || strings.Contains(convID, "..") {
		return nil, false, fmt.Errorf("invalid conversation id %q", convID)
	}

	allowed, ok := allowedMediaTypes[up.MediaType]
	if !ok {
		s.logger.Debug("attachment rejected: media type not allowed",
			zap.String("user", userID),
			zap.String("media_type", up.MediaType),
		)
		return nil, false, nil
	}

	size := max(up.Size, int64(len(up.Data)))
	if size > MaxFileBytes {
		s.logger.Debug("attachment rejected: over per-file ceiling",
			zap.String("user", userID),
			zap.Int64("size_bytes", size),
		)
		return nil, false, nil
	}

	profile, err := s.users.Get(userID)
	if err != nil {
		return nil, false, err
	}
	sizeMB := float64(size) / bytesPerMB
	if profile.StorageUsedMB+sizeMB > QuotaLimitMB {
		s.logger.Debug("attachment rejected: over quota",
			zap.String("user", userID),
			zap.Float64("used_mb", profile.StorageUsedMB),
			zap.Float64("upload_mb", sizeMB),
		)
		return nil, false, nil
	}

	dir := s.convDir(userID, convID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, false, fmt.Errorf("creating attachment namespace: %w", err)
	}

	name, err := s.nextFileName(dir, msgID, allowed.ext)
	if err != nil {
		return nil, false, err
	}

	if err := os.WriteFile(filepath.Join(dir, name), up.Data, 0o600); err != nil {
		return nil, false, fmt.Errorf("writing attachment: %w", err)
	}

	// Blob is on disk before the ledger credit; a crash between the two
	// leaves an orphaned file and an under-reported ledger (documented gap).
	if err := s.users.AddUsage(userID, sizeMB); err != nil {
		return nil, false, err
	}

	ref := &StoredRef{
		Ref:       filepath.Join(attachmentsDirName, convID, name),
		Name:      up.DeclaredName,
		Kind:      allowed.kind,
		MediaType: up.MediaType,
		SizeBytes: size,
	}

	s.logger.Info("attachment admitted",
		zap.String("user", userID),
		zap.String("conversation_id", convID),
		zap.String("ref", ref.Ref),
		zap.Int64("size_bytes", size),
	)
	return ref, true, nil
}

// nextFileName derives the blob filename from the message id plus a
// write-time disambiguator for messages carrying several attachments.
func (s *Store) nextFileName(dir, msgID, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("listing attachment namespace: %w", err)
	}

	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), msgID+"_") {
			n++
		}
	}
	return fmt.Sprintf("%s_%d%s", msgID, n, ext), nil
}

// Release deletes every attachment under a conversation's namespace and
// debits the freed bytes from the quota ledger. Used exclusively by task
// conversation deletion. Returns the freed byte count.
func (s *Store) Release(userID, convID string) (int64, error) {
	dir := s.convDir(userID, convID)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing attachment namespace: %w", err)
	}

	var freed int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		freed += info.Size()
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("removing attachment namespace: %w", err)
	}

	if freed > 0 {
		if err := s.users.SubtractUsage(userID, float64(freed)/bytesPerMB); err != nil {
			return freed, err
		}
	}

	s.logger.Info("attachments released",
		zap.String("user", userID),
		zap.String("conversation_id", convID),
		zap.Int64("freed_bytes", freed),
	)
	return freed, nil
}

// HasAny reports whether a conversation has at least one stored attachment.
func (s *Store) HasAny(userID, convID string) bool {
	entries, err := os.ReadDir(s.convDir(userID, convID))
	return err == nil && len(entries) > 0
}
