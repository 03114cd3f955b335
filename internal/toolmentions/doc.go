// Package toolmentions extracts tool and platform names from the full
// conversation corpus and aggregates them into per-tool, per-user, and
// per-category statistics.
//
// The aggregation is a pure function of the current document corpus: no
// index is persisted and every view re-runs the full scan. Matching is
// case-insensitive on whole-word boundaries against a fixed dictionary;
// entries that are substrings of one another (a short form and its
// vendor-qualified form) intentionally both match, so raw mention counts
// can double-count while user and conversation sets stay deduplicated per
// canonical name.
//
// The scanner holds no locks and reads a live, possibly mid-mutation
// corpus; the output is an advisory snapshot.
package toolmentions
