// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lexdef-engine/internal/archive"
)

const defaultArchivePath = "lexdef-archive.db"

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Query the archive of extraction results (list, search, export)",
	Long: `Archive reads the SQLite database written by serve --archive and
resolve --archive. Use subcommands to list recent results, run a
full-text search over terms and fallback text, or export everything.`,
}

// --- list subcommand ---

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent archived results",
	RunE:  runArchiveList,
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(cmd.OutOrStdout(), entries, jsonOutput)
}

// --- search subcommand ---

var archiveSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over archived terms and fallback text",
	Long: `Search runs an FTS5 query over archived terms, fallback text, and
markdown previews. Combine with --strategy or --identifier to filter.`,
	RunE: runArchiveSearch,
}

func runArchiveSearch(cmd *cobra.Command, args []string) error {
	opts := archiveQueryFromFlags(cmd, args)
	if opts.Query == "" && opts.Strategy == "" && opts.Identifier == "" {
		return fmt.Errorf("query or filter required: provide a search query, --strategy, or --identifier")
	}

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(cmd.OutOrStdout(), entries, jsonOutput)
}

// --- export subcommand ---

var archiveExportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export archived results to stdout as YAML or JSON",
	RunE:  runArchiveExport,
}

func runArchiveExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	store, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Export(context.Background(), cmd.OutOrStdout(), format, archiveQueryFromFlags(cmd, args))
}

// --- shared helpers ---

func openArchive(cmd *cobra.Command) (*archive.Store, error) {
	v := viper.GetViper()
	cfg := archiveConfig(v)
	if path, _ := cmd.Flags().GetString("archive"); path != "" {
		cfg.Path = path
	}
	if cfg.Path == "" {
		cfg.Path = defaultArchivePath
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", cfg.Path, err)
	}
	return archive.NewStore(cfg)
}

func archiveQueryFromFlags(cmd *cobra.Command, args []string) archive.QueryOptions {
	strategy, _ := cmd.Flags().GetString("strategy")
	identifier, _ := cmd.Flags().GetString("identifier")
	limit, _ := cmd.Flags().GetInt("limit")
	return archive.QueryOptions{
		Query:      strings.Join(args, " "),
		Strategy:   strategy,
		Identifier: identifier,
		MaxResults: limit,
	}
}

func formatEntries(w io.Writer, entries []archive.Entry, jsonOutput bool) error {
	if jsonOutput {
		if entries == nil {
			entries = []archive.Entry{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-24s  %-20s  %-8s  %-7s  %s\n",
		"Created", "Identifier", "Term", "Strategy", "Potency", "Fallback")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, e := range entries {
		fmt.Fprintf(w, "%-20s  %-24s  %-20s  %-8s  %-7d  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			clip(e.CanonicalIdentifier, 24), clip(e.Term, 20), e.Strategy,
			e.Potency, clip(e.Fallback, 30))
	}

	fmt.Fprintf(w, "\n%d results\n", len(entries))
	return nil
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	archiveCmd.PersistentFlags().String("archive", "", "SQLite archive file (default: archive.path or "+defaultArchivePath+")")
	archiveCmd.PersistentFlags().Int("limit", 0, "maximum results (0 = use default)")

	archiveListCmd.Flags().Bool("json", false, "output results as JSON")

	archiveSearchCmd.Flags().String("strategy", "", "filter by cascade strategy: strict, footnote, loose, content")
	archiveSearchCmd.Flags().String("identifier", "", "filter by canonical identifier")
	archiveSearchCmd.Flags().Bool("json", false, "output results as JSON")

	archiveExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	archiveExportCmd.Flags().String("strategy", "", "filter by cascade strategy for partial export")
	archiveExportCmd.Flags().String("identifier", "", "filter by canonical identifier for partial export")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveExportCmd)

	rootCmd.AddCommand(archiveCmd)
}
