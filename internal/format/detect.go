// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format classifies fetched payloads as HTML documents,
// Markdown-like text, or non-document content.
package format

import (
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// xmlSniffLen bounds how far past an XML declaration Detect looks for
// an <html> root.
const xmlSniffLen = 512

// Detect classifies body. HTML documents start with a doctype or <html>
// root (optionally after an XML declaration). Empty, binary, or invalid
// UTF-8 bodies are FormatUnknown. Anything else is Markdown-like text.
func Detect(body string) types.Format {
	s := strings.TrimLeft(strings.TrimPrefix(body, "\uFEFF"), " \t\r\n")
	if s == "" {
		return types.FormatUnknown
	}
	if !utf8.ValidString(s) || strings.ContainsRune(s, 0) {
		return types.FormatUnknown
	}
	if isHTML(s) {
		return types.FormatHTML
	}
	return types.FormatMarkdownLike
}

func isHTML(s string) bool {
	if hasPrefixFold(s, "<!doctype html") || hasPrefixFold(s, "<html") {
		return true
	}
	if hasPrefixFold(s, "<?xml") {
		head := s
		if len(head) > xmlSniffLen {
			head = head[:xmlSniffLen]
		}
		return strings.Contains(strings.ToLower(head), "<html")
	}
	return false
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
