// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one resolution-and-extraction request end to end:
// normalize the identifier, resolve the authoritative page, locate and
// fetch the payload, detect its format, run the extraction cascade, and
// assemble the result.
package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdiddy/lexdef-engine/internal/clean"
	"github.com/pdiddy/lexdef-engine/internal/extract"
	"github.com/pdiddy/lexdef-engine/internal/format"
	"github.com/pdiddy/lexdef-engine/internal/httputil"
	"github.com/pdiddy/lexdef-engine/internal/identifier"
	"github.com/pdiddy/lexdef-engine/internal/manifest"
	"github.com/pdiddy/lexdef-engine/internal/resolve"
	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// Placeholder is the fallback text for content that is not a readable
// document.
const Placeholder = "Sorry, this entry does not contain readable text."

// Pipeline holds the per-process state shared by requests: the fetcher
// with its rate limiter and the manifest cache. It is safe for concurrent
// use.
type Pipeline struct {
	cfg      types.PipelineConfig
	fetcher  *httputil.Fetcher
	resolver *resolve.Resolver
	manifest *manifest.Cache
	logger   *slog.Logger
}

// New builds a Pipeline from cfg. A nil client uses http.DefaultClient and
// a nil logger uses slog.Default().
func New(client *http.Client, cfg types.PipelineConfig, logger *slog.Logger) *Pipeline {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	fetcher := httputil.NewFetcher(client, cfg.HTTPConfig)
	p := &Pipeline{
		cfg:      cfg,
		fetcher:  fetcher,
		resolver: resolve.New(fetcher, cfg.DocumentURL, cfg.EnablePermalinkResolution),
		logger:   logger,
	}
	if cfg.Manifest.Enabled() {
		p.manifest = manifest.New(cfg.Manifest.URL, fetcher)
	}
	return p
}

// Config returns the effective configuration, defaults applied.
func (p *Pipeline) Config() types.PipelineConfig {
	return p.cfg
}

// ManifestState reports the manifest cache lifecycle. ok is false when no
// manifest is configured.
func (p *Pipeline) ManifestState() (state manifest.State, ok bool) {
	if p.manifest == nil {
		return manifest.Uninitialized, false
	}
	return p.manifest.State(), true
}

// Run extracts the lexDef for rawQuery. Every failure is a *types.Error;
// a missing identifier is reported before any network call.
func (p *Pipeline) Run(ctx context.Context, rawQuery string) (*types.ExtractionResult, error) {
	id, err := identifier.Normalize(rawQuery)
	if err != nil {
		return nil, err
	}
	log := p.logger.With("identifier", id)

	page, err := p.resolver.Resolve(ctx, id)
	if err != nil {
		log.WarnContext(ctx, "resolve failed", "error", err)
		return nil, err
	}
	if page.Location.Redirected() {
		log.DebugContext(ctx, "permalink followed",
			"canonical", page.Location.CanonicalIdentifier,
			"url", page.Location.SourceURL)
	}

	coordinate, body, err := p.payload(ctx, page)
	if err != nil {
		log.WarnContext(ctx, "payload unavailable", "error", err)
		return nil, err
	}

	content := types.RawContent{Body: body, Format: format.Detect(body)}
	result, err := p.extract(content)
	if err != nil {
		log.InfoContext(ctx, "extraction failed",
			"format", content.Format.String(), "error", err)
		return nil, err
	}
	result.Coordinate = coordinate
	result.Location = page.Location

	log.DebugContext(ctx, "extracted",
		"format", content.Format.String(),
		"strategy", string(result.Strategy),
		"potency", result.Potency,
		"valency", result.Valency,
		"links", len(result.Links))
	return result, nil
}

// payload returns the URL and body the extraction runs against. The
// payload location is taken from the manifest when configured, else from a
// preload declaration in the page, else the page itself unless a preload
// is required.
func (p *Pipeline) payload(ctx context.Context, page *resolve.Page) (coordinate, body string, err error) {
	var target string
	if p.manifest != nil {
		path, found, err := p.manifest.Lookup(ctx, page.Location.CanonicalIdentifier)
		if err != nil {
			return "", "", types.NewError(types.ManifestFetchFailed, err)
		}
		if !found {
			return "", "", types.NewError(types.IdentifierNotIndexed, nil)
		}
		target = joinURL(p.cfg.Manifest.RawBase, path)
	} else if preload, ok := resolve.FindPreload(page.Body, page.URL); ok {
		target = preload
	} else if p.cfg.RequirePreload {
		return "", "", types.NewError(types.PreloadNotFound, nil)
	} else {
		return page.Location.SourceURL, page.Body, nil
	}

	resp, err := p.fetcher.Get(ctx, target)
	if err != nil {
		return "", "", types.NewError(types.PayloadFetchFailed, err)
	}
	return target, resp.Body, nil
}

// extract runs the cascade over content and computes the metrics.
func (p *Pipeline) extract(content types.RawContent) (*types.ExtractionResult, error) {
	if content.Format == types.FormatUnknown {
		if !p.cfg.EnableContentFallback {
			return nil, types.NewError(types.NoLexDefFound, nil)
		}
		return &types.ExtractionResult{
			UsageTypes: []string{},
			Fallback:   Placeholder,
			Links:      []string{},
			Strategy:   types.StrategyContent,
		}, nil
	}

	var text string
	switch {
	case content.Format == types.FormatHTML && p.cfg.EnableHTMLPreviewFallback:
		preview, ok := clean.Preview(content.Body, p.cfg.PreviewContainer)
		if !ok || preview == "" {
			return nil, types.NewError(types.NoReadableContent, nil)
		}
		text = preview
	default:
		text = clean.Text(content.Body)
	}
	text = clean.Truncate(text, p.cfg.TruncationLimit)

	out, ok := extract.Run(text, extract.Options{
		ContentFallback: p.cfg.EnableContentFallback,
		FallbackLimit:   p.cfg.FallbackLimit,
	})
	if !ok {
		return nil, types.NewError(types.NoLexDefFound, nil)
	}

	result := &types.ExtractionResult{
		UsageTypes:    []string{},
		Potency:       out.Potency(),
		Valency:       extract.Valency(text),
		Concentration: extract.Concentration(text),
		Fallback:      out.Fallback,
		Markdown:      clean.Truncate(text, p.cfg.FallbackLimit),
		Links:         extract.Links(content.Body, p.cfg.DeduplicateLinks),
		Strategy:      out.Strategy,
	}
	if out.Record != nil {
		result.UsageTypes = out.Record.UsageTypes
		if out.Strategy == types.StrategyStrict {
			term := out.Record.Term
			result.Term = &term
		}
	}
	return result, nil
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
