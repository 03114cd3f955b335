// Package users maintains the per-user profile document: the storage quota
// ledger and the onboarding completion flag.
//
// User identity itself is owned externally; this package only persists the
// fields the conversation core reads and writes as side effects of
// lifecycle transitions. The quota ledger is a single numeric field on the
// profile, read-modify-written alongside attachment admission and release.
package users

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/scsuvizlab/tiis-chatbot-sub000/internal/docstore"
)

// ProfileDocID is the reserved document id for the profile inside a user's
// namespace. Conversation listings must skip it.
const ProfileDocID = "profile"

// Profile carries the externally-owned user state the core depends on.
type Profile struct {
	Email              string    `json:"email"`
	StorageUsedMB      float64   `json:"storage_used_mb"`
	OnboardingComplete bool      `json:"onboarding_complete"`
	CreatedAt          time.Time `json:"created_at"`
}

// Store persists profiles through the document store.
type Store struct {
	docs   *docstore.Store
	logger *zap.Logger
}

// NewStore creates a profile store.
func NewStore(docs *docstore.Store, logger *zap.Logger) (*Store, error) {
	if docs == nil {
		return nil, errors.New("document store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{docs: docs, logger: logger}, nil
}

// Get loads a user's profile. A user with no stored profile yet is a fresh
// zero profile, not an error.
func (s *Store) Get(email string) (*Profile, error) {
	var p Profile
	err := s.docs.Load(email, ProfileDocID, &p)
	if errors.Is(err, docstore.ErrNotFound) {
		return &Profile{Email: email}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return &p, nil
}

// Save persists a profile, stamping CreatedAt on first write.
func (s *Store) Save(p *Profile) error {
	if p.Email == "" {
		return errors.New("profile email is required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := s.docs.Save(p.Email, ProfileDocID, p); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// AddUsage credits consumed storage to the user's quota ledger.
func (s *Store) AddUsage(email string, mb float64) error {
	p, err := s.Get(email)
	if err != nil {
		return err
	}
	p.StorageUsedMB += mb
	if err := s.Save(p); err != nil {
		return err
	}

	s.logger.Debug("quota ledger credited",
		zap.String("user", email),
		zap.Float64("added_mb", mb),
		zap.Float64("used_mb", p.StorageUsedMB),
	)
	return nil
}

// SubtractUsage releases storage from the user's quota ledger, clamping at
// zero so a missed credit can never drive the ledger negative.
func (s *Store) SubtractUsage(email string, mb float64) error {
	p, err := s.Get(email)
	if err != nil {
		return err
	}
	p.StorageUsedMB -= mb
	if p.StorageUsedMB < 0 {
		p.StorageUsedMB = 0
	}
	if err := s.Save(p); err != nil {
		return err
	}

	s.logger.Debug("quota ledger debited",
		zap.String("user", email),
		zap.Float64("freed_mb", mb),
		zap.Float64("used_mb", p.StorageUsedMB),
	)
	return nil
}

// SetOnboardingComplete flips the onboarding flag on the profile.
func (s *Store) SetOnboardingComplete(email string, complete bool) error {
	p, err := s.Get(email)
	if err != nil {
		return err
	}
	p.OnboardingComplete = complete
	return s.Save(p)
}
