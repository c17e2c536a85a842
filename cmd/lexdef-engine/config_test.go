// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexdef-engine/pkg/types"
)

func TestPipelineConfig_Presets(t *testing.T) {
	v := viper.New()
	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.True(t, cfg.EnablePermalinkResolution)
	assert.True(t, cfg.EnableContentFallback)
	assert.Equal(t, types.DefaultDocumentURL, cfg.DocumentURL)
	assert.False(t, cfg.Manifest.Enabled())

	v.Set(keyPreset, types.PresetStrict)
	cfg, err = pipelineConfig(v)
	require.NoError(t, err)
	assert.False(t, cfg.EnablePermalinkResolution)
	assert.False(t, cfg.EnableHTMLPreviewFallback)
	assert.False(t, cfg.EnableContentFallback)
	assert.True(t, cfg.RequirePreload)

	v.Set(keyPreset, types.PresetIndexed)
	cfg, err = pipelineConfig(v)
	require.NoError(t, err)
	assert.True(t, cfg.Manifest.Enabled())

	v.Set(keyPreset, "experimental")
	_, err = pipelineConfig(v)
	assert.Error(t, err)
}

func TestPipelineConfig_FromYAML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
preset: strict
document_url: https://docs.example.com/wiki/{id}
enable_content_fallback: true
deduplicate_links: false
fallback_limit: 500
http:
  timeout: 3s
  requests_per_second: 2.5
  max_body_bytes: 1024
`)))

	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/wiki/{id}", cfg.DocumentURL)
	assert.False(t, cfg.EnablePermalinkResolution, "preset value kept")
	assert.True(t, cfg.EnableContentFallback, "explicit key overrides preset")
	assert.True(t, cfg.RequirePreload, "preset value kept")
	assert.False(t, cfg.DeduplicateLinks)
	assert.Equal(t, 500, cfg.FallbackLimit)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RequestsPerSecond)
	assert.Equal(t, int64(1024), cfg.MaxBodyBytes)
	assert.Equal(t, types.DefaultTruncationLimit, cfg.TruncationLimit)
}

func TestPipelineConfig_FromEnv(t *testing.T) {
	t.Setenv("LEXDEF_ENGINE_HTTP_TIMEOUT", "7s")
	t.Setenv("LEXDEF_ENGINE_PREVIEW_CONTAINER", "content")

	v := viper.New()
	v.SetEnvPrefix("LEXDEF_ENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
	assert.Equal(t, "content", cfg.PreviewContainer)
}

func TestPipelineConfig_ManifestNeedsRawBase(t *testing.T) {
	v := viper.New()
	v.Set(keyManifestURL, "https://raw.example.com/index.json")
	_, err := pipelineConfig(v)
	assert.Error(t, err)

	v.Set(keyManifestRawBase, "https://raw.example.com/")
	cfg, err := pipelineConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "https://raw.example.com/", cfg.Manifest.RawBase)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	v := viper.New()
	v.Set(keyLogLevel, "warn")

	logger, err := newLogger(v, &buf)
	require.NoError(t, err)
	logger.Info("hidden")
	logger.Warn("shown", "identifier", "ember")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "ember", line["identifier"])

	v.Set(keyLogFormat, "text")
	buf.Reset()
	logger, err = newLogger(v, &buf)
	require.NoError(t, err)
	logger.Warn("plain")
	assert.Contains(t, buf.String(), "msg=plain")

	v.Set(keyLogFormat, "xml")
	_, err = newLogger(v, &buf)
	assert.Error(t, err)

	v.Set(keyLogFormat, "json")
	v.Set(keyLogLevel, "loud")
	_, err = newLogger(v, &buf)
	assert.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	term := "Ember"
	result := &types.ExtractionResult{
		Term:       &term,
		UsageTypes: []string{"noun"},
		Potency:    1,
		Links:      []string{},
		Location:   types.ResolvedLocation{RequestedIdentifier: "ember", CanonicalIdentifier: "ember"},
		Strategy:   types.StrategyStrict,
	}

	var jb bytes.Buffer
	require.NoError(t, writeResult(&jb, result, "json"))
	assert.Contains(t, jb.String(), `"usageTypes": [`)
	assert.NotContains(t, jb.String(), "strategy")

	var yb bytes.Buffer
	require.NoError(t, writeResult(&yb, result, "yaml"))
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(yb.Bytes(), &decoded))
	assert.Equal(t, "Ember", decoded["term"])
	assert.Equal(t, "strict", decoded["strategy"])
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
}
