// Package metadata extracts the four medusa:* keys from a suite's raw
// Metadata settings into ordered, still-unresolved token entries. It knows
// nothing about variable resolution — that is internal/value's job — only
// about which keys exist, how many times, and that unrecognized medusa:*
// keys are a hard error (spec.md §4.1).
package metadata

import (
	"fmt"
	"strings"
)

// Recognized medusa:* keys.
const (
	KeyStage   = "medusa:stage"
	KeyDeps    = "medusa:deps"
	KeyFor     = "medusa:for"
	KeyTimeout = "medusa:timeout"
)

// Sentinel errors, matched with errors.Is at call sites.
var (
	ErrUnknownKey  = fmt.Errorf("metadata: unrecognized medusa:* key")
	ErrMissingKey  = fmt.Errorf("metadata: required key missing")
	ErrMalformed   = fmt.Errorf("metadata: malformed entry")
	ErrTooManyKeys = fmt.Errorf("metadata: key may only appear once")
)

// RawEntry is one `Metadata    key    token  token  ...` line as read from a
// suite's *** Settings *** section, before any variable resolution.
type RawEntry struct {
	Key    string
	Tokens []string
}

// Metadata holds the raw (unresolved) medusa:* entries for one suite,
// grouped by key and preserving declaration order within a key.
type Metadata struct {
	Stage   RawEntry    // exactly one entry, single token after resolution
	Deps    []RawEntry  // one or more entries, each a token list
	For     *RawEntry   // zero or one entry
	Timeout *RawEntry   // zero or one entry
}

// Read groups a suite's raw metadata lines into a Metadata, validating that
// every medusa:* key is recognized and that stage/deps are present.
// Non-medusa:* metadata lines are ignored — they belong to the suite, not
// to the scheduler.
func Read(entries []RawEntry) (*Metadata, error) {
	m := &Metadata{}
	var stageEntries []RawEntry

	for _, e := range entries {
		if !strings.HasPrefix(e.Key, "medusa:") {
			continue
		}
		switch e.Key {
		case KeyStage:
			stageEntries = append(stageEntries, e)
		case KeyDeps:
			if len(e.Tokens) == 0 {
				return nil, fmt.Errorf("%w: %s entry has no tokens", ErrMalformed, KeyDeps)
			}
			m.Deps = append(m.Deps, e)
		case KeyFor:
			if m.For != nil {
				return nil, fmt.Errorf("%w: %s", ErrTooManyKeys, KeyFor)
			}
			entryCopy := e
			m.For = &entryCopy
		case KeyTimeout:
			if m.Timeout != nil {
				return nil, fmt.Errorf("%w: %s", ErrTooManyKeys, KeyTimeout)
			}
			entryCopy := e
			m.Timeout = &entryCopy
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, e.Key)
		}
	}

	switch len(stageEntries) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, KeyStage)
	case 1:
		m.Stage = stageEntries[0]
	default:
		return nil, fmt.Errorf("%w: %s", ErrTooManyKeys, KeyStage)
	}

	if len(m.Deps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, KeyDeps)
	}

	return m, nil
}

// ForClauseTokens splits a medusa:for entry's tokens on the literal
// separator "IN" into (targets, source). Returns ErrMalformed if "IN" does
// not appear, appears with no targets before it, or no source after it.
func ForClauseTokens(entry RawEntry) (targets []string, source []string, err error) {
	idx := -1
	for i, tok := range entry.Tokens {
		if tok == "IN" {
			idx = i
			break
		}
	}
	if idx <= 0 || idx == len(entry.Tokens)-1 {
		return nil, nil, fmt.Errorf("%w: %s must contain targets IN source", ErrMalformed, KeyFor)
	}
	return entry.Tokens[:idx], entry.Tokens[idx+1:], nil
}

// TimeoutTokens splits a medusa:timeout entry's single comma-separated
// token into its soft,hard,kill parts.
func TimeoutTokens(entry RawEntry) ([]string, error) {
	if len(entry.Tokens) != 1 {
		return nil, fmt.Errorf("%w: %s must be a single comma-separated triple", ErrMalformed, KeyTimeout)
	}
	parts := strings.Split(entry.Tokens[0], ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: %s must have exactly 3 comma-separated values, got %d", ErrMalformed, KeyTimeout, len(parts))
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, nil
}
