// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lexdef-engine CLI. It serves
// lexDef lookups over HTTP, runs single lookups from the shell, and
// queries the optional result archive.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the lexdef-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "lexdef-engine",
	Short: "Resolve document identifiers and extract lexical definitions",
	Long: `lexdef-engine resolves a document identifier to its canonical page,
retrieves the page's content, and extracts the lexDef declaration it
carries together with cross-reference links and derived metrics.

Use serve to expose the lookup over HTTP, resolve for a single lookup
from the shell, and archive to query stored results.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./lexdef-engine.yaml or ~/.config/lexdef-engine/lexdef-engine.yaml)")
	pf.String("preset", "default", "pipeline preset: default, strict, or indexed")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "json", "log format: json or text")

	viper.BindPFlag("preset", pf.Lookup("preset"))
	viper.BindPFlag("log.level", pf.Lookup("log-level"))
	viper.BindPFlag("log.format", pf.Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lexdef-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lexdef-engine"))
		}
	}

	viper.SetEnvPrefix("LEXDEF_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
