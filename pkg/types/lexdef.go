// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Format classifies retrieved content.
type Format int

const (
	FormatUnknown Format = iota
	FormatHTML
	FormatMarkdownLike
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatMarkdownLike:
		return "markdown"
	default:
		return "unknown"
	}
}

// ResolvedLocation records where a requested identifier was found.
// SourceURL is always derived from CanonicalIdentifier.
type ResolvedLocation struct {
	RequestedIdentifier string `json:"requested_identifier" yaml:"requested_identifier"`
	CanonicalIdentifier string `json:"canonical_identifier" yaml:"canonical_identifier"`
	SourceURL           string `json:"source_url" yaml:"source_url"`
}

// Redirected reports whether permalink resolution changed the identifier.
func (l ResolvedLocation) Redirected() bool {
	return l.CanonicalIdentifier != l.RequestedIdentifier
}

// RawContent is a fetched body together with its detected format.
type RawContent struct {
	Body   string
	Format Format
}

// LexDefRecord is one lexical definition located in a document.
// len(UsageTypes) is the record's potency. Term is empty only for
// footnote-style records, which carry no quoted term.
type LexDefRecord struct {
	Term         string   `json:"term,omitempty" yaml:"term,omitempty"`
	UsageTypes   []string `json:"usage_types" yaml:"usage_types"`
	FootnoteText string   `json:"footnote_text,omitempty" yaml:"footnote_text,omitempty"`
}

// Potency is the number of usage entries on the record.
func (r LexDefRecord) Potency() int {
	return len(r.UsageTypes)
}

// Strategy names the cascade step that produced a result.
type Strategy string

const (
	StrategyStrict   Strategy = "strict"
	StrategyFootnote Strategy = "footnote"
	StrategyLoose    Strategy = "loose"
	StrategyContent  Strategy = "content"
	StrategyNone     Strategy = "none"
)

// ExtractionResult is the response contract of the pipeline. Field names
// follow the public JSON shape consumed by existing clients.
type ExtractionResult struct {
	// Term is the quoted term of a strict lexDef match, nil otherwise.
	Term *string `json:"term" yaml:"term"`

	UsageTypes    []string `json:"usageTypes" yaml:"usage_types"`
	Potency       int      `json:"potency" yaml:"potency"`
	Valency       int      `json:"valency" yaml:"valency"`
	Concentration int      `json:"concentration" yaml:"concentration"`

	// Fallback is the footnote text, loose sentence, or page text chosen by
	// the cascade. Empty when a strict match needs no fallback.
	Fallback string `json:"fallback" yaml:"fallback"`

	// Markdown is a bounded preview of the cleaned payload text.
	Markdown string `json:"markdown" yaml:"markdown"`

	// Coordinate is the source URL the extraction ran against.
	Coordinate string `json:"coordinate" yaml:"coordinate"`

	Links []string `json:"links" yaml:"links"`

	Location ResolvedLocation `json:"-" yaml:"location"`
	Strategy Strategy         `json:"-" yaml:"strategy"`
}
