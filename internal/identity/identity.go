// Package identity issues player short codes and turns a caller-supplied
// player identifier into a store lookup filter.
//
// Callers hand us identifiers of unknown provenance: a store id copied from a
// link, a short code typed off a badge (often in lower case), or a legacy id
// carried over from an import. Resolve builds one Filter that covers all of
// them; the store evaluates it in a fixed priority order so every endpoint
// agrees on which player an identifier means.
package identity

import (
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/random"
)

const (
	// CodePrefix is the fixed leading character of every short code.
	CodePrefix = "P"

	// CodeAlphabet omits I, O, 0 and 1, which are easy to confuse on a badge.
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// CodeLength is the number of random symbols after the prefix.
	CodeLength = 6
)

// Filter matches a player by whichever identifier form the caller supplied.
//
// Match priority, highest first:
//
//	0. NativeID  == store id            (only when the input parses as an xid)
//	1. ShortCode == short code          (input upper-cased)
//	2. Raw matches short code, store id or legacy alias exactly
type Filter struct {
	NativeID  string
	ShortCode string
	Raw       string
}

// Resolve builds the lookup filter for a raw player identifier.
func Resolve(raw string) (Filter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Filter{}, apperror.ValidationFailed("playerId", "Player ID is required")
	}

	f := Filter{
		ShortCode: strings.ToUpper(raw),
		Raw:       raw,
	}
	if IsNativeID(raw) {
		f.NativeID = raw
	}
	return f, nil
}

// ByID is the filter for a store id the caller already holds, such as one
// returned by an earlier lookup.
func ByID(id string) Filter {
	return Filter{NativeID: id, Raw: id}
}

// IsNativeID reports whether s has the store's native identifier format.
func IsNativeID(s string) bool {
	_, err := xid.FromString(s)
	return err == nil
}

// NewNativeID returns a fresh store identifier.
func NewNativeID() string {
	return xid.New().String()
}

// CodeGenerator issues short codes. Codes are unique in practice; collisions
// are not checked.
type CodeGenerator struct {
	rnd random.Random
}

// NewCodeGenerator creates a CodeGenerator backed by rnd.
func NewCodeGenerator(rnd random.Random) *CodeGenerator {
	return &CodeGenerator{rnd: rnd}
}

// Next returns a new short code such as "P7K3M9Q".
func (g *CodeGenerator) Next() string {
	return CodePrefix + g.rnd.String(CodeLength, CodeAlphabet)
}

// IsShortCode reports whether s is a well-formed short code.
func IsShortCode(s string) bool {
	if len(s) != len(CodePrefix)+CodeLength || !strings.HasPrefix(s, CodePrefix) {
		return false
	}
	for _, c := range s[len(CodePrefix):] {
		if !strings.ContainsRune(CodeAlphabet, c) {
			return false
		}
	}
	return true
}
