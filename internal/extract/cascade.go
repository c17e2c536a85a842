// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract locates lexical definitions (lexDefs) in cleaned text.
// cascade.go holds the ordered strategy chain; links.go and metrics.go
// derive cross-references and counts.
package extract

import (
	"regexp"
	"strings"

	"github.com/pdiddy/lexdef-engine/internal/clean"
	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// usageDelimiter separates entries in a usage list.
const usageDelimiter = "||"

var (
	// strictRe matches `lexDef "Ember" {usage::: noun || verb}`.
	strictRe = regexp.MustCompile(`(?i)\blexDef\s+"([^"]+)"\s+\{usage:{3,}\s*([^}]+)\}`)

	// footnoteRe matches the head of `[^1]: lexDef {usage::: noun} text`.
	// The trailing text is cut by hand at the next "[^" marker.
	footnoteRe = regexp.MustCompile(`(?i)\[\^\w+\]:\s*lexDef\s*\{usage:{3,}\s*([^}]+)\}`)

	// looseRe matches one sentence mentioning lexDef, ended by .?! or end of text.
	looseRe = regexp.MustCompile(`(?i)[^.?!]*\blexDef\b[^.?!]*(?:[.?!]|$)`)

	// markerRe matches a bare lexDef marker.
	markerRe = regexp.MustCompile(`(?i)\blexDef\b`)
)

// Outcome is what one strategy found. Record is set for strict and
// footnote matches.
type Outcome struct {
	Strategy types.Strategy
	Record   *types.LexDefRecord
	Fallback string
}

// Potency returns the usage count of the matched record, 0 without one.
func (o Outcome) Potency() int {
	if o.Record == nil {
		return 0
	}
	return o.Record.Potency()
}

// Strategy is a pure matcher over cleaned text.
type Strategy func(text string) (Outcome, bool)

// Cascade lists the structured strategies in priority order.
var Cascade = []Strategy{Strict, Footnote, Loose}

// Options tunes the fallback behaviour of Run.
type Options struct {
	// ContentFallback returns the text itself when no marker exists.
	ContentFallback bool

	// FallbackLimit bounds content fallback text in runes.
	FallbackLimit int
}

// Run tries each strategy in Cascade and stops at the first match. When
// none matches and the text has no lexDef marker, the content fallback
// returns the bounded text. ok is false when nothing usable was found:
// content fallback disabled, or empty text.
func Run(text string, opts Options) (out Outcome, ok bool) {
	for _, s := range Cascade {
		if o, matched := s(text); matched {
			return o, true
		}
	}
	if !opts.ContentFallback || text == "" || markerRe.MatchString(text) {
		return Outcome{Strategy: types.StrategyNone}, false
	}
	return Outcome{
		Strategy: types.StrategyContent,
		Fallback: clean.Truncate(text, opts.FallbackLimit),
	}, true
}

// Strict matches the full `lexDef "<term>" {usage::: ...}` form.
func Strict(text string) (Outcome, bool) {
	m := strictRe.FindStringSubmatch(text)
	if m == nil {
		return Outcome{}, false
	}
	return Outcome{
		Strategy: types.StrategyStrict,
		Record: &types.LexDefRecord{
			Term:       strings.TrimSpace(m[1]),
			UsageTypes: SplitUsage(m[2]),
		},
	}, true
}

// Footnote matches `[^key]: lexDef {usage::: ...} <text>`. The text runs to
// the next footnote marker or the end of input and becomes the fallback.
func Footnote(text string) (Outcome, bool) {
	loc := footnoteRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return Outcome{}, false
	}
	trailing := text[loc[1]:]
	if i := strings.Index(trailing, "[^"); i >= 0 {
		trailing = trailing[:i]
	}
	note := strings.TrimSpace(trailing)
	return Outcome{
		Strategy: types.StrategyFootnote,
		Record: &types.LexDefRecord{
			UsageTypes:   SplitUsage(text[loc[2]:loc[3]]),
			FootnoteText: note,
		},
		Fallback: note,
	}, true
}

// Loose returns the first sentence that mentions lexDef.
func Loose(text string) (Outcome, bool) {
	m := looseRe.FindString(text)
	if m == "" {
		return Outcome{}, false
	}
	return Outcome{
		Strategy: types.StrategyLoose,
		Fallback: strings.TrimSpace(m),
	}, true
}

// SplitUsage splits a usage list on "||" and trims each entry. Empty
// entries, including the one after a trailing delimiter, are dropped, so
// "a||b" and "a||b||" both yield [a b].
func SplitUsage(block string) []string {
	usages := []string{}
	for _, u := range strings.Split(block, usageDelimiter) {
		if u = strings.TrimSpace(u); u != "" {
			usages = append(usages, u)
		}
	}
	return usages
}
