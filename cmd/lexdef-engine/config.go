// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

// Configuration keys. Nested keys map to LEXDEF_ENGINE_<KEY> environment
// variables with dots replaced by underscores.
const (
	keyPreset           = "preset"
	keyDocumentURL      = "document_url"
	keyTimeout          = "http.timeout"
	keyUserAgent        = "http.user_agent"
	keyMaxBodyBytes     = "http.max_body_bytes"
	keyRequestsPerSec   = "http.requests_per_second"
	keyPermalinks       = "enable_permalink_resolution"
	keyPreviewFallback  = "enable_html_preview_fallback"
	keyContentFallback  = "enable_content_fallback"
	keyRequirePreload   = "require_preload"
	keyTruncationLimit  = "truncation_limit"
	keyFallbackLimit    = "fallback_limit"
	keyDeduplicateLinks = "deduplicate_links"
	keyPreviewContainer = "preview_container"
	keyManifestURL      = "manifest.url"
	keyManifestRawBase  = "manifest.raw_base"
	keyLogLevel         = "log.level"
	keyLogFormat        = "log.format"
	keyServerAddr       = "server.addr"
	keyShutdownTimeout  = "server.shutdown_timeout"
	keyMetricsPath      = "server.metrics_path"
	keyArchivePath      = "archive.path"
	keyArchiveMax       = "archive.max_results"
)

// pipelineConfig starts from the configured preset and applies every key
// that is explicitly set in the config file, environment, or flags.
func pipelineConfig(v *viper.Viper) (types.PipelineConfig, error) {
	cfg, err := types.PresetConfig(v.GetString(keyPreset))
	if err != nil {
		return types.PipelineConfig{}, err
	}

	if v.IsSet(keyDocumentURL) {
		cfg.DocumentURL = v.GetString(keyDocumentURL)
	}
	if v.IsSet(keyTimeout) {
		cfg.Timeout = v.GetDuration(keyTimeout)
	}
	if v.IsSet(keyUserAgent) {
		cfg.UserAgent = v.GetString(keyUserAgent)
	}
	if v.IsSet(keyMaxBodyBytes) {
		cfg.MaxBodyBytes = v.GetInt64(keyMaxBodyBytes)
	}
	if v.IsSet(keyRequestsPerSec) {
		cfg.RequestsPerSecond = v.GetFloat64(keyRequestsPerSec)
	}
	if v.IsSet(keyPermalinks) {
		cfg.EnablePermalinkResolution = v.GetBool(keyPermalinks)
	}
	if v.IsSet(keyPreviewFallback) {
		cfg.EnableHTMLPreviewFallback = v.GetBool(keyPreviewFallback)
	}
	if v.IsSet(keyContentFallback) {
		cfg.EnableContentFallback = v.GetBool(keyContentFallback)
	}
	if v.IsSet(keyRequirePreload) {
		cfg.RequirePreload = v.GetBool(keyRequirePreload)
	}
	if v.IsSet(keyTruncationLimit) {
		cfg.TruncationLimit = v.GetInt(keyTruncationLimit)
	}
	if v.IsSet(keyFallbackLimit) {
		cfg.FallbackLimit = v.GetInt(keyFallbackLimit)
	}
	if v.IsSet(keyDeduplicateLinks) {
		cfg.DeduplicateLinks = v.GetBool(keyDeduplicateLinks)
	}
	if v.IsSet(keyPreviewContainer) {
		cfg.PreviewContainer = v.GetString(keyPreviewContainer)
	}
	if v.IsSet(keyManifestURL) {
		cfg.Manifest.URL = v.GetString(keyManifestURL)
	}
	if v.IsSet(keyManifestRawBase) {
		cfg.Manifest.RawBase = v.GetString(keyManifestRawBase)
	}

	if cfg.Manifest.Enabled() && cfg.Manifest.RawBase == "" {
		return types.PipelineConfig{}, fmt.Errorf("%s is required when %s is set", keyManifestRawBase, keyManifestURL)
	}
	return cfg.WithDefaults(), nil
}

func serverConfig(v *viper.Viper) types.ServerConfig {
	return types.ServerConfig{
		Addr:            v.GetString(keyServerAddr),
		ShutdownTimeout: v.GetDuration(keyShutdownTimeout),
		MetricsPath:     v.GetString(keyMetricsPath),
	}
}

func archiveConfig(v *viper.Viper) types.ArchiveConfig {
	return types.ArchiveConfig{
		Path:       v.GetString(keyArchivePath),
		MaxResults: v.GetInt(keyArchiveMax),
	}
}

// newLogger builds the process logger from log.level and log.format.
func newLogger(v *viper.Viper, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if s := v.GetString(keyLogLevel); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", keyLogLevel, s, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(v.GetString(keyLogFormat)) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid %s %q: use json or text", keyLogFormat, v.GetString(keyLogFormat))
	}
}
