// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clean

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain markdown", "# Ember\n\n  lexDef  \"Ember\"\n{usage::: noun}", `# Ember lexDef "Ember" {usage::: noun}`},
		{"inline tags joined", "Em<i>ber</i> glows", "Ember glows"},
		{"block tags separate", "<p>one</p><p>two</p>", "one two"},
		{"script dropped", "a<script>var lexDef = 1;</script>b", "ab"},
		{"style dropped", "<style>.x{color:red}</style><div>text</div>", "text"},
		{"entities decoded", "lexDef &quot;Ember&quot; &amp; more", `lexDef "Ember" & more`},
		{"comments dropped", "a <!-- hidden lexDef --> b", "a b"},
		{"br separates", "line<br>next<br/>last", "line next last"},
		{"wiki links kept", "see [[Alpha]] and [[Beta]]", "see [[Alpha]] and [[Beta]]"},
		{"unclosed angle kept", `a<b lexDef "Ember" {usage::: noun || verb}`, `a<b lexDef "Ember" {usage::: noun || verb}`},
		{"unclosed end tag kept", "x </y and more", "x </y and more"},
		{"closed tag after bare angle", "1 <2 and <b>bold</b>", "1 <2 and bold"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestPreview(t *testing.T) {
	doc := `<!DOCTYPE html><html><head><title>Ember</title>
<script>window.x = 1;</script></head>
<body>
  <nav>Menu</nav>
  <div class="page markdown preview">
    <h1>Ember</h1>
    <p>lexDef "Ember" {usage::: noun || verb}</p>
    <script>ignored()</script>
    <p>Second   paragraph.</p>
  </div>
</body></html>`

	text, ok := Preview(doc, "preview")
	assert.True(t, ok)
	assert.Equal(t, `Ember lexDef "Ember" {usage::: noun || verb} Second paragraph.`, text)
}

func TestPreviewByID(t *testing.T) {
	doc := `<html><body><section id="preview"><p>by id</p></section><div class="preview">by class</div></body></html>`
	text, ok := Preview(doc, "preview")
	assert.True(t, ok)
	assert.Equal(t, "by id", text)
}

func TestPreviewMissing(t *testing.T) {
	doc := `<html><body><div class="previewer">close but no</div></body></html>`
	text, ok := Preview(doc, "preview")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "a b c", Collapse("  a\n\tb   c  "))
	assert.Equal(t, "", Collapse(" \n "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "ca", Truncate("café", 2))

	long := strings.Repeat("é", 200)
	got := Truncate(long, 150)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 150, utf8.RuneCountInString(got))
}
