// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexdef-engine/internal/archive"
	"github.com/pdiddy/lexdef-engine/internal/pipeline"
	"github.com/pdiddy/lexdef-engine/pkg/types"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <identifier>",
	Short: "Resolve one identifier and print its extraction result",
	Long: `Resolve runs a single lookup through the same pipeline the HTTP server
uses and prints the result. JSON output matches the HTTP response body;
YAML output also carries the resolved location and the cascade strategy.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("format", "json", "output format: json or yaml")
	resolveCmd.Flags().String("archive", "", "also write the result to this SQLite archive")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	format, _ := cmd.Flags().GetString("format")
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}

	logger, err := newLogger(v, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := pipelineConfig(v)
	if err != nil {
		return err
	}

	p := pipeline.New(&http.Client{}, cfg, logger)
	result, err := p.Run(context.Background(), strings.Join(args, " "))
	if err != nil {
		if kind := types.KindOf(err); kind != "" {
			return fmt.Errorf("%s (%d): %w", kind.Message(), kind.Status(), err)
		}
		return err
	}

	if path, _ := cmd.Flags().GetString("archive"); path != "" {
		acfg := archiveConfig(v)
		acfg.Path = path
		store, err := archive.NewStore(acfg)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Insert(context.Background(), result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "archived %s\n", id)
	}

	return writeResult(cmd.OutOrStdout(), result, format)
}

func writeResult(w io.Writer, result *types.ExtractionResult, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
