// Package idutil normalizes and validates remote page identifiers for the
// synchronizer's identity model.
package idutil

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// rawHexPattern matches a bare 32-hex page id with no dashes, anywhere in a
// string (e.g. embedded in a Notion URL's trailing slug).
var rawHexPattern = regexp.MustCompile(`[0-9a-fA-F]{32}`)

// dashedPattern matches a fully-dashed UUID anywhere in a string.
var dashedPattern = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

// Normalize converts a 32-hex or already-dashed page id to canonical dashed
// form. It returns an error if s contains no recognizable UUID.
func Normalize(s string) (string, error) {
	id, ok := ExtractID(s)
	if !ok {
		return "", fmt.Errorf("idutil: no page id found in %q", s)
	}
	return id, nil
}

// ExtractID finds the first UUID-shaped substring in s — dashed or raw
// 32-hex — and returns its canonical dashed form. The dashed pattern is
// tried first since a raw-hex match could otherwise consume part of a
// dashed id's digits.
func ExtractID(s string) (string, bool) {
	if m := dashedPattern.FindString(s); m != "" {
		if id, err := uuid.Parse(m); err == nil {
			return id.String(), true
		}
	}
	if m := rawHexPattern.FindString(s); m != "" {
		id, err := uuid.Parse(insertDashes(m))
		if err != nil {
			return "", false
		}
		return id.String(), true
	}
	return "", false
}

// insertDashes converts a 32-hex string into dashed 8-4-4-4-12 form.
func insertDashes(hex string) string {
	var b strings.Builder
	b.Grow(36)
	for i, r := range hex {
		if i == 8 || i == 12 || i == 16 || i == 20 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Valid reports whether s is a canonically-dashed UUID.
func Valid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// URLContainsID reports whether pageURL contains pageID in either hex or
// dashed form, per IndexRecord invariant 1.
func URLContainsID(pageURL, pageID string) bool {
	bare := strings.ReplaceAll(pageID, "-", "")
	return strings.Contains(pageURL, pageID) || strings.Contains(pageURL, bare)
}
