// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identifier normalizes raw document identifiers taken from a
// request query string.
package identifier

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// Normalize decodes percent-encoding, trims whitespace, and strips leading
// and trailing "/" until the value is stable, then puts it in NFC form.
// Percent sequences that do not decode are kept literally. An empty result
// is a MissingIdentifier error.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, error) {
	id := raw
	for {
		next := norm.NFC.String(strip(decode(id)))
		if next == id {
			break
		}
		id = next
	}
	if id == "" {
		return "", types.NewError(types.MissingIdentifier, nil)
	}
	return id, nil
}

func decode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	d, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return d
}

// strip removes whitespace and "/" from both ends, in any interleaving.
func strip(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
}
