// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

var defaultOpts = Options{ContentFallback: true, FallbackLimit: 2000}

func TestRun_StrictEmber(t *testing.T) {
	out, ok := Run(`lexDef "Ember" {usage::: noun || verb}`, defaultOpts)
	require.True(t, ok)
	require.NotNil(t, out.Record)

	assert.Equal(t, types.StrategyStrict, out.Strategy)
	assert.Equal(t, "Ember", out.Record.Term)
	assert.Equal(t, []string{"noun", "verb"}, out.Record.UsageTypes)
	assert.Equal(t, 2, out.Potency())
	assert.Empty(t, out.Fallback)
}

func TestStrict(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTerm  string
		wantUsage []string
	}{
		{"extra colons", `lexDef "Ash" {usage:::: noun}`, "Ash", []string{"noun"}},
		{"case insensitive marker", `LEXDEF "Ash" {USAGE::: noun || adj}`, "Ash", []string{"noun", "adj"}},
		{"embedded in prose", `Intro text. lexDef "Cinder" {usage::: noun || verb || adj} more.`, "Cinder", []string{"noun", "verb", "adj"}},
		{"first record wins", `lexDef "A" {usage::: x} lexDef "B" {usage::: y || z}`, "A", []string{"x"}},
		{"spaces in term", `lexDef "burning coal" {usage:::noun}`, "burning coal", []string{"noun"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Strict(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.wantTerm, out.Record.Term)
			assert.Equal(t, tt.wantUsage, out.Record.UsageTypes)
			assert.Equal(t, len(tt.wantUsage), out.Potency())
		})
	}
}

func TestStrict_NoMatch(t *testing.T) {
	for _, text := range []string{
		`lexDef {usage::: noun}`,
		`lexDef "Ember" {usage:: noun}`,
		`xlexDef "Ember" {usage::: noun}`,
		`lexDef "Ember"`,
		``,
	} {
		_, ok := Strict(text)
		assert.False(t, ok, "Strict(%q) should not match", text)
	}
}

func TestSplitUsage(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"a||b", []string{"a", "b"}},
		{"a||b||", []string{"a", "b"}},
		{" a || b ", []string{"a", "b"}},
		{"||a", []string{"a"}},
		{"a|| ||b", []string{"a", "b"}},
		{"single", []string{"single"}},
		{" || ", []string{}},
		{"a|b", []string{"a|b"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitUsage(tt.in))
		})
	}
}

func TestPotencyMatchesSplit(t *testing.T) {
	for _, list := range []string{"a||b", "a||b||", "noun || verb || adj", "x"} {
		out, ok := Strict(`lexDef "T" {usage::: ` + list + `}`)
		require.True(t, ok)
		assert.Equal(t, len(SplitUsage(list)), out.Potency(), "list %q", list)
		assert.Equal(t, len(out.Record.UsageTypes), out.Potency())
	}
}

func TestFootnote(t *testing.T) {
	text := `Body text[^1]. [^1]: lexDef {usage::: noun || verb} A glowing fragment of coal. [^2]: unrelated note`
	out, ok := Run(text, defaultOpts)
	require.True(t, ok)

	assert.Equal(t, types.StrategyFootnote, out.Strategy)
	require.NotNil(t, out.Record)
	assert.Empty(t, out.Record.Term)
	assert.Equal(t, []string{"noun", "verb"}, out.Record.UsageTypes)
	assert.Equal(t, "A glowing fragment of coal.", out.Fallback)
	assert.Equal(t, out.Fallback, out.Record.FootnoteText)
	assert.Equal(t, 2, out.Potency())
}

func TestFootnote_RunsToEnd(t *testing.T) {
	out, ok := Footnote(`[^note]: lexDef {usage::: adj}   trailing words  `)
	require.True(t, ok)
	assert.Equal(t, "trailing words", out.Fallback)
}

func TestLoose(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"middle sentence", "Intro. The lexDef for this entry is pending review. End.", "The lexDef for this entry is pending review."},
		{"question", "Where is the lexDef? Nobody knows.", "Where is the lexDef?"},
		{"end of text", "Draft notes mention a lexDef without punctuation", "Draft notes mention a lexDef without punctuation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := Run(tt.text, defaultOpts)
			require.True(t, ok)
			assert.Equal(t, types.StrategyLoose, out.Strategy)
			assert.Nil(t, out.Record)
			assert.Equal(t, tt.want, out.Fallback)
			assert.Zero(t, out.Potency())
		})
	}
}

func TestRun_ContentFallback(t *testing.T) {
	text := "Ember is a small piece of burning coal. It glows."
	out, ok := Run(text, defaultOpts)
	require.True(t, ok)
	assert.Equal(t, types.StrategyContent, out.Strategy)
	assert.Equal(t, text, out.Fallback)
}

func TestRun_ContentFallbackTruncated(t *testing.T) {
	text := strings.Repeat("word ", 100)
	out, ok := Run(text, Options{ContentFallback: true, FallbackLimit: 12})
	require.True(t, ok)
	assert.Equal(t, text[:12], out.Fallback)
	assert.NotEmpty(t, out.Fallback)
}

func TestRun_ContentFallbackDisabled(t *testing.T) {
	out, ok := Run("no definitions here", Options{ContentFallback: false})
	assert.False(t, ok)
	assert.Equal(t, types.StrategyNone, out.Strategy)
}

func TestRun_EmptyText(t *testing.T) {
	_, ok := Run("", defaultOpts)
	assert.False(t, ok)
}

func TestLinks(t *testing.T) {
	raw := "[[Alpha]] text [[Beta]] [[Alpha]]"

	assert.Equal(t, []string{"Alpha", "Beta"}, Links(raw, true))
	assert.Equal(t, []string{"Alpha", "Beta", "Alpha"}, Links(raw, false))
}

func TestLinks_Edges(t *testing.T) {
	assert.Equal(t, []string{}, Links("no links", true))
	assert.Equal(t, []string{"Target|Alias", "Spaced"}, Links("[[Target|Alias]] [[ Spaced ]] [[ ]]", true))
	assert.Equal(t, []string{"inner"}, Links("[[[inner]]]", true))
}

func TestValencyAndConcentration(t *testing.T) {
	tests := []struct {
		name              string
		text              string
		wantValency       int
		wantConcentration int
	}{
		{"none", "plain text", 0, 0},
		{"one strict", `lexDef "A" {usage::: x}`, 1, 1},
		{"strict and loose", `lexDef "A" {usage::: x}. Another lexDef mention.`, 2, 1},
		{"two strict", `lexDef "A" {usage::: x} and LexDef "B" {usage::: y || z}`, 2, 2},
		{"footnote only", `[^1]: lexDef {usage::: x} note`, 1, 0},
		{"word boundary", "lexDefs and xlexDef are not markers", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c := Valency(tt.text), Concentration(tt.text)
			assert.Equal(t, tt.wantValency, v)
			assert.Equal(t, tt.wantConcentration, c)
			assert.GreaterOrEqual(t, v, c)
			assert.GreaterOrEqual(t, c, 0)
		})
	}
}
