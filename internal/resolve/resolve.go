// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve maps a normalized identifier to its canonical document
// page, following at most one permalink indirection, and locates the
// payload declared by that page.
package resolve

import (
	"context"
	"net/url"
	"strings"

	"github.com/pdiddy/lexdef-engine/internal/httputil"
	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// idPlaceholder is replaced by the escaped identifier in URL templates.
const idPlaceholder = "{id}"

// Getter fetches a URL. *httputil.Fetcher satisfies it.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
}

// Page is the authoritative outer page for a request.
type Page struct {
	Location types.ResolvedLocation

	// URL is the final URL the body was served from, after redirects.
	URL  string
	Body string
}

// Resolver builds document URLs from a template and performs the outer
// page fetches.
type Resolver struct {
	getter     Getter
	template   string
	prefix     string
	permalinks bool
}

// New returns a Resolver for template (e.g. "https://www.carpvs.com/{id}").
// When permalinks is false the first fetched page is always authoritative.
func New(getter Getter, template string, permalinks bool) *Resolver {
	return &Resolver{
		getter:     getter,
		template:   template,
		prefix:     templatePrefix(template),
		permalinks: permalinks,
	}
}

// URLFor returns the document URL for id. Each path segment is escaped;
// the "/" separators between segments are kept.
func (r *Resolver) URLFor(id string) string {
	segments := strings.Split(id, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	escaped := strings.Join(segments, "/")
	if !strings.Contains(r.template, idPlaceholder) {
		return strings.TrimRight(r.template, "/") + "/" + escaped
	}
	return strings.ReplaceAll(r.template, idPlaceholder, escaped)
}

// Resolve fetches the page for id. If the page declares a permalink that
// contains id and names a different document, that document is fetched
// once and becomes authoritative. A permalink naming id itself, or one
// that builds the same URL, never causes a second fetch.
func (r *Resolver) Resolve(ctx context.Context, id string) (*Page, error) {
	primary := r.URLFor(id)
	loc := types.ResolvedLocation{
		RequestedIdentifier: id,
		CanonicalIdentifier: id,
		SourceURL:           primary,
	}

	resp, err := r.getter.Get(ctx, primary)
	if err != nil {
		return nil, types.NewError(types.OuterFetchFailed, err)
	}
	page := &Page{Location: loc, URL: resp.URL, Body: resp.Body}

	if !r.permalinks {
		return page, nil
	}
	canonical, ok := FindPermalink(resp.Body, id, r.prefix)
	if !ok || canonical == id {
		return page, nil
	}
	second := r.URLFor(canonical)
	if second == primary {
		return page, nil
	}

	resp, err = r.getter.Get(ctx, second)
	if err != nil {
		return nil, types.NewError(types.PermalinkFetchFailed, err)
	}
	page.Location.CanonicalIdentifier = canonical
	page.Location.SourceURL = second
	page.URL = resp.URL
	page.Body = resp.Body
	return page, nil
}

// templatePrefix returns the fixed path in front of the placeholder, so
// that a permalink "https://host/wiki/ash" under "https://host/wiki/{id}"
// resolves to the identifier "ash".
func templatePrefix(template string) string {
	i := strings.Index(template, idPlaceholder)
	if i < 0 {
		i = len(template)
	}
	u, err := url.Parse(template[:i])
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}
