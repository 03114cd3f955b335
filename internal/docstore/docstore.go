// Package docstore provides generic key-based persistence of structured
// documents under a per-user namespace.
//
// Layout on disk:
//
//	<root>/<user-key>/<doc-id>.json
//
// where <user-key> is the sanitized user identifier. Every mutation is
// whole-document: load the full document, mutate in memory, save the full
// document. There is no partial-field update primitive.
package docstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/sanitize"
)

const docExt = ".json"

var (
	// ErrNotFound is returned when the requested document does not exist.
	// It is a recoverable condition, not an I/O failure.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidDocID is returned for document ids that are empty or unsafe
	// as path components.
	ErrInvalidDocID = errors.New("invalid document id")
)

// Store persists JSON documents on the local filesystem, sharded by user.
type Store struct {
	root   string
	logger *zap.Logger
}

// New creates a document store rooted at the given directory. The root is
// created if it does not exist.
func New(root string, logger *zap.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("storage root is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// UserDir returns the namespace directory for a user. The directory may not
// exist yet; Save creates it lazily.
func (s *Store) UserDir(userID string) string {
	return s.keyDir(sanitize.StorageKey(userID))
}

// keyDir addresses a namespace by its raw storage key.
func (s *Store) keyDir(key string) string {
	return filepath.Join(s.root, key)
}

func (s *Store) docPath(userID, docID string) (string, error) {
	if err := validateDocID(docID); err != nil {
		return "", err
	}
	return filepath.Join(s.UserDir(userID), docID+docExt), nil
}

// validateDocID rejects ids that are empty or could escape the user
// namespace. Document ids are generated (uuid or a fixed singleton name),
// so anything else indicates a caller bug.
func validateDocID(docID string) error {
	if docID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidDocID)
	}
	if strings.ContainsAny(docID, "/\\") || strings.Contains(docID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidDocID, docID)
	}
	return nil
}

// Load reads the document with the given id into v. Returns ErrNotFound
// when the document is absent; any other I/O failure propagates.
func (s *Store) Load(userID, docID string, v any) error {
	return s.LoadByKey(sanitize.StorageKey(userID), docID, v)
}

// LoadByKey is Load addressed by raw storage key. Corpus-wide scans walk
// raw keys so namespaces with hash-truncated keys stay reachable; the
// identifier round trip is lossy for those.
func (s *Store) LoadByKey(key, docID string, v any) error {
	if err := validateDocID(docID); err != nil {
		return err
	}
	path := filepath.Join(s.keyDir(key), docID+docExt)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("reading document %s: %w", docID, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding document %s: %w", docID, err)
	}
	return nil
}

// Save writes the document with the given id, creating the user namespace
// directory if needed. The write replaces any existing document (last write
// wins).
func (s *Store) Save(userID, docID string, v any) error {
	path, err := s.docPath(userID, docID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating user namespace: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding document %s: %w", docID, err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing document %s: %w", docID, err)
	}

	s.logger.Debug("saved document",
		zap.String("user", userID),
		zap.String("doc_id", docID),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Delete removes the document with the given id. Deleting an absent
// document returns ErrNotFound.
func (s *Store) Delete(userID, docID string) error {
	path, err := s.docPath(userID, docID)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting document %s: %w", docID, err)
	}

	s.logger.Debug("deleted document",
		zap.String("user", userID),
		zap.String("doc_id", docID),
	)
	return nil
}

// ListIDs returns the ids of all documents in a user's namespace. Each call
// is a fresh directory listing; order is not guaranteed. A missing
// namespace yields an empty list.
func (s *Store) ListIDs(userID string) ([]string, error) {
	return s.ListIDsByKey(sanitize.StorageKey(userID))
}

// ListIDsByKey is ListIDs addressed by raw storage key.
func (s *Store) ListIDsByKey(key string) ([]string, error) {
	entries, err := os.ReadDir(s.keyDir(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), docExt))
	}
	return ids, nil
}

// ListUserKeys returns the raw storage key of every user namespace under
// the root. Callers address documents with the key directly (LoadByKey,
// ListIDsByKey) and decode only for display, since keys of over-long
// identifiers are hash-truncated and do not decode.
func (s *Store) ListUserKeys() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing users: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		keys = append(keys, e.Name())
	}
	return keys, nil
}
