// Package sanitize provides shared identifier sanitization for on-disk
// storage keys.
//
// User identifiers are email addresses and may contain characters that are
// unsafe or ambiguous in file paths. Storage keys must match: ^[a-z0-9_]+$
// and the mapping must be injective so two distinct identifiers can never
// collide on the same directory.
package sanitize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// MaxKeyLength is the maximum length for a storage key. Keys longer
	// than this are truncated with a hash suffix.
	MaxKeyLength = 150

	// HashSuffixLength is the length of the hash suffix added to truncated
	// keys. Format: _h<8-char-hash> = 10 characters total. The 'h' marker is
	// not a hex digit, so the suffix can never be mistaken for an escape and
	// DecodeKey can tell truncated keys apart from decodable ones.
	HashSuffixLength = 10

	// DefaultKey is used when sanitization receives an empty identifier.
	DefaultKey = "default"
)

// StorageKey sanitizes an identifier for use as a filesystem path component.
//
// Lowercase ASCII letters and digits pass through unchanged. Every other
// byte (including uppercase letters, so "Bob" and "bob" stay distinct) is
// replaced by a fixed escape of the form _XX where XX is the lowercase hex
// value of the byte. The transform is deterministic and injective up to
// MaxKeyLength.
//
// Examples:
//
//	"alice@example.com" -> "alice_40example_2ecom"
//	"Bob@example.com"   -> "_42ob_40example_2ecom"
//	""                  -> "default"
func StorageKey(id string) string {
	if id == "" {
		return DefaultKey
	}

	var result strings.Builder
	result.Grow(len(id))
	for i := 0; i < len(id); i++ {
		b := id[i]
		if (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') {
			result.WriteByte(b)
		} else {
			fmt.Fprintf(&result, "_%02x", b)
		}
	}

	key := result.String()
	if len(key) > MaxKeyLength {
		key = truncateWithHash(key)
	}

	return key
}

// DecodeKey reverses StorageKey for keys that were not truncated. Keys
// produced from over-long identifiers carry the _h hash suffix and cannot
// be decoded; an error is returned for those and any other malformed
// escape.
func DecodeKey(key string) (string, error) {
	var result strings.Builder
	result.Grow(len(key))
	for i := 0; i < len(key); i++ {
		b := key[i]
		if b != '_' {
			result.WriteByte(b)
			continue
		}
		if i+1 < len(key) && key[i+1] == 'h' {
			return "", fmt.Errorf("key %q is truncated; the original identifier is not recoverable", key)
		}
		if i+2 >= len(key) {
			return "", fmt.Errorf("truncated escape at offset %d in %q", i, key)
		}
		decoded, err := hex.DecodeString(key[i+1 : i+3])
		if err != nil {
			return "", fmt.Errorf("bad escape at offset %d in %q: %w", i, key, err)
		}
		result.WriteByte(decoded[0])
		i += 2
	}
	return result.String(), nil
}

// DisplayID decodes a storage key back to its identifier for presentation.
// Keys that cannot be decoded (truncated long identifiers, foreign
// directories) display as the raw key.
func DisplayID(key string) string {
	id, err := DecodeKey(key)
	if err != nil {
		return key
	}
	return id
}

// truncateWithHash truncates a key to fit within MaxKeyLength, appending a
// hash suffix to preserve uniqueness for practical inputs.
//
// Format: <truncated>_h<8-char-hash>
func truncateWithHash(s string) string {
	hash := sha256.Sum256([]byte(s))
	hashSuffix := "_h" + hex.EncodeToString(hash[:])[:8]

	maxBase := MaxKeyLength - HashSuffixLength
	truncated := strings.TrimRight(s[:maxBase], "_")

	return truncated + hashSuffix
}
