// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings for every outbound fetch.
type HTTPConfig struct {
	// Timeout bounds each individual request. Exceeding it is reported the
	// same way as a transport failure.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "lexdef-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxBodyBytes caps how much of a response body is read (default 8 MiB).
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// ManifestConfig points the pipeline at an index manifest that maps
// identifiers to storage paths on a raw-content host.
type ManifestConfig struct {
	// URL is the manifest location. Empty disables the manifest.
	URL string `json:"url" yaml:"url"`

	// RawBase is prefixed to every storage path read from the manifest.
	RawBase string `json:"raw_base" yaml:"raw_base"`
}

// Enabled reports whether the manifest lookup is configured.
func (m ManifestConfig) Enabled() bool {
	return m.URL != ""
}

// PipelineConfig controls one resolution-and-extraction pipeline. Each
// historical variant of the pipeline is a preset of these fields.
type PipelineConfig struct {
	HTTPConfig `yaml:",inline"`

	// DocumentURL is the template for outer document pages. The literal
	// "{id}" is replaced by the escaped identifier.
	DocumentURL string `json:"document_url" yaml:"document_url"`

	EnablePermalinkResolution bool `json:"enable_permalink_resolution" yaml:"enable_permalink_resolution"`
	EnableHTMLPreviewFallback bool `json:"enable_html_preview_fallback" yaml:"enable_html_preview_fallback"`

	// EnableContentFallback lets the cascade return cleaned page text when
	// no lexDef marker exists. When false a missing lexDef is an error.
	EnableContentFallback bool `json:"enable_content_fallback" yaml:"enable_content_fallback"`

	// RequirePreload makes a page without a preload declaration an error
	// instead of extracting from the page itself. Ignored with a manifest.
	RequirePreload bool `json:"require_preload" yaml:"require_preload"`

	// TruncationLimit bounds the cleaned text in runes (default 144000).
	TruncationLimit int `json:"truncation_limit" yaml:"truncation_limit"`

	// FallbackLimit bounds content-fallback and markdown preview text in runes.
	FallbackLimit int `json:"fallback_limit" yaml:"fallback_limit"`

	DeduplicateLinks bool `json:"deduplicate_links" yaml:"deduplicate_links"`

	// PreviewContainer is the id or class name of the element holding
	// rendered page content, used by the HTML preview fallback.
	PreviewContainer string `json:"preview_container" yaml:"preview_container"`

	Manifest ManifestConfig `json:"manifest" yaml:"manifest"`
}

// Default limits and endpoints.
const (
	DefaultDocumentURL      = "https://www.carpvs.com/{id}"
	DefaultTimeout          = 15 * time.Second
	DefaultUserAgent        = "lexdef-engine/0.1"
	DefaultMaxBodyBytes     = 8 << 20
	DefaultTruncationLimit  = 144000
	DefaultFallbackLimit    = 2000
	DefaultPreviewContainer = "preview"
)

// Preset names accepted by PresetConfig.
const (
	PresetDefault = "default"
	PresetStrict  = "strict"
	PresetIndexed = "indexed"
)

// PresetConfig returns the configuration for a named pipeline variant.
//
//	default  permalink resolution, HTML preview and content fallbacks on
//	strict   no permalink, no preview, preload required, a missing lexDef is a 404
//	indexed  default plus manifest-backed payload lookup
func PresetConfig(name string) (PipelineConfig, error) {
	cfg := PipelineConfig{
		HTTPConfig: HTTPConfig{
			Timeout:      DefaultTimeout,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		DocumentURL:               DefaultDocumentURL,
		EnablePermalinkResolution: true,
		EnableHTMLPreviewFallback: true,
		EnableContentFallback:     true,
		TruncationLimit:           DefaultTruncationLimit,
		FallbackLimit:             DefaultFallbackLimit,
		DeduplicateLinks:          true,
		PreviewContainer:          DefaultPreviewContainer,
	}

	switch name {
	case "", PresetDefault:
	case PresetStrict:
		cfg.EnablePermalinkResolution = false
		cfg.EnableHTMLPreviewFallback = false
		cfg.EnableContentFallback = false
		cfg.RequirePreload = true
	case PresetIndexed:
		cfg.Manifest = ManifestConfig{
			URL:     "https://raw.carpvs.com/index.json",
			RawBase: "https://raw.carpvs.com/",
		}
	default:
		return PipelineConfig{}, fmt.Errorf("unknown preset %q (want %s, %s, or %s)",
			name, PresetDefault, PresetStrict, PresetIndexed)
	}
	return cfg, nil
}

// WithDefaults fills zero-valued limits with their defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.DocumentURL == "" {
		c.DocumentURL = DefaultDocumentURL
	}
	if c.TruncationLimit <= 0 {
		c.TruncationLimit = DefaultTruncationLimit
	}
	if c.FallbackLimit <= 0 {
		c.FallbackLimit = DefaultFallbackLimit
	}
	if c.PreviewContainer == "" {
		c.PreviewContainer = DefaultPreviewContainer
	}
	return c
}

// ServerConfig holds settings for the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8787").
	Addr string `json:"addr" yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MetricsPath is where Prometheus metrics are served (default "/metrics").
	MetricsPath string `json:"metrics_path" yaml:"metrics_path"`
}

// ArchiveConfig holds settings for the optional result archive.
type ArchiveConfig struct {
	// Path is the SQLite database file. Empty disables archiving.
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default number of rows returned by queries (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
