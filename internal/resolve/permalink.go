// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// scriptPermalinkRe matches `permalink: "/ash"` and `"permalink":"/ash"`.
	scriptPermalinkRe = regexp.MustCompile(`["']?permalink["']?\s*[:=]\s*["']([^"']+)["']`)

	// preloadRe matches `window.preloadPage = f("https://.../ash.md")`.
	preloadRe = regexp.MustCompile(`window\.preloadPage\s*=\s*\w+\(\s*["']([^"']+)["']`)
)

// FindPermalink looks for a permalink declaration in page whose value
// contains id and returns the identifier it declares. Declarations are
// checked in order: <link rel="canonical">, <meta property="og:url">, then
// script assignments to "permalink". prefix is the fixed path in front of
// identifiers on the document host; it is removed from the declared path.
// A percent-encoded declaration matches id in either form.
func FindPermalink(page, id, prefix string) (string, bool) {
	for _, candidate := range permalinkCandidates(page) {
		if !mentions(candidate, id) {
			continue
		}
		if declared := declaredIdentifier(candidate, prefix); declared != "" {
			return declared, true
		}
	}
	return "", false
}

func mentions(candidate, id string) bool {
	if strings.Contains(candidate, id) {
		return true
	}
	unescaped, err := url.PathUnescape(candidate)
	return err == nil && strings.Contains(unescaped, id)
}

func permalinkCandidates(page string) []string {
	var canonical, ogURL []string

	z := html.NewTokenizer(strings.NewReader(page))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if !hasAttr {
			continue
		}
		attrs := readAttrs(z)
		switch atom.Lookup(name) {
		case atom.Link:
			if hasToken(attrs["rel"], "canonical") && attrs["href"] != "" {
				canonical = append(canonical, attrs["href"])
			}
		case atom.Meta:
			if (attrs["property"] == "og:url" || attrs["name"] == "og:url") && attrs["content"] != "" {
				ogURL = append(ogURL, attrs["content"])
			}
		}
	}

	candidates := append(canonical, ogURL...)
	for _, m := range scriptPermalinkRe.FindAllStringSubmatch(page, -1) {
		candidates = append(candidates, m[1])
	}
	return candidates
}

func readAttrs(z *html.Tokenizer) map[string]string {
	attrs := make(map[string]string)
	for {
		key, val, more := z.TagAttr()
		attrs[strings.ToLower(string(key))] = string(val)
		if !more {
			return attrs
		}
	}
}

func hasToken(list, token string) bool {
	for _, t := range strings.Fields(list) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

// declaredIdentifier turns a permalink value (absolute URL or path) into
// an identifier: the URL path, separators trimmed, prefix removed.
func declaredIdentifier(value, prefix string) string {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if prefix != "" {
		if path == prefix {
			return ""
		}
		path = strings.TrimPrefix(path, prefix+"/")
	}
	return path
}

// FindPreload returns the payload URL declared by a
// `window.preloadPage = fn("<url>")` assignment in page, resolved against
// pageURL when relative.
func FindPreload(page, pageURL string) (string, bool) {
	m := preloadRe.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	ref, err := url.Parse(strings.TrimSpace(m[1]))
	if err != nil {
		return "", false
	}
	base, err := url.Parse(pageURL)
	if err != nil || ref.IsAbs() {
		return ref.String(), true
	}
	return base.ResolveReference(ref).String(), true
}
