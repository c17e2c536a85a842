// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean turns fetched payloads into the flat text the extraction
// cascade runs over: markup stripped, non-content elements dropped,
// whitespace collapsed, length bounded.
package clean

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements contribute no text at all.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
}

// block elements separate words; inline tags are removed without a gap
// so that "Em<i>ber</i>" stays one word.
var block = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// Text strips markup from body and collapses whitespace. Entities are
// decoded. Script and style contents are dropped before stripping. Only
// complete tags are markup: a "<" that is never closed, as in "a<b", is
// kept as text.
func Text(body string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	var b strings.Builder
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if raw := z.Raw(); depth == 0 && len(raw) > 0 && errors.Is(z.Err(), io.EOF) {
				b.WriteString(html.UnescapeString(string(raw)))
			}
			return Collapse(b.String())
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] {
				depth++
			} else if block[a] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipped[a] {
				if depth > 0 {
					depth--
				}
			} else if block[a] {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if block[atom.Lookup(name)] {
				b.WriteByte(' ')
			}
		}
	}
}

// Preview finds the first element whose id equals container or whose
// class list contains it, and returns its collapsed text. ok is false when
// no such element exists or the document cannot be parsed.
func Preview(document, container string) (text string, ok bool) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return "", false
	}
	n := findContainer(root, container)
	if n == nil {
		return "", false
	}
	var b strings.Builder
	writeText(&b, n)
	return Collapse(b.String()), true
}

func findContainer(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && matches(n, name) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findContainer(c, name); found != nil {
			return found
		}
	}
	return nil
}

func matches(n *html.Node, name string) bool {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			if attr.Val == name {
				return true
			}
		case "class":
			for _, cls := range strings.Fields(attr.Val) {
				if cls == name {
					return true
				}
			}
		}
	}
	return false
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
		if block[n.DataAtom] {
			b.WriteByte(' ')
			defer b.WriteByte(' ')
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
}

// Collapse replaces every run of whitespace with a single space and trims
// both ends.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns at most limit runes of s. A non-positive limit leaves
// s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
