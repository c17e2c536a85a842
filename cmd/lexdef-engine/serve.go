// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lexdef-engine/internal/archive"
	"github.com/pdiddy/lexdef-engine/internal/pipeline"
	"github.com/pdiddy/lexdef-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve lexDef lookups over HTTP",
	Long: `Serve answers GET /?q=<identifier> with the extraction result as JSON.
Prometheus metrics are served at /metrics and a liveness check at /healthz.
With --archive every successful result is also written to the archive.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", server.DefaultAddr, "listen address")
	serveCmd.Flags().Duration("shutdown-timeout", server.DefaultShutdownTimeout, "graceful shutdown timeout")
	serveCmd.Flags().String("metrics-path", server.DefaultMetricsPath, "path for Prometheus metrics")
	serveCmd.Flags().String("archive", "", "SQLite archive file for successful results (empty disables)")

	viper.BindPFlag(keyServerAddr, serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag(keyShutdownTimeout, serveCmd.Flags().Lookup("shutdown-timeout"))
	viper.BindPFlag(keyMetricsPath, serveCmd.Flags().Lookup("metrics-path"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()

	logger, err := newLogger(v, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := pipelineConfig(v)
	if err != nil {
		return err
	}

	p := pipeline.New(&http.Client{}, cfg, logger)

	var opts []server.Option
	if path := archivePath(cmd, v); path != "" {
		acfg := archiveConfig(v)
		acfg.Path = path
		store, err := archive.NewStore(acfg)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, server.WithRecorder(store))
		logger.Info("archiving results", "path", path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	effective := p.Config()
	logger.Info("starting",
		"version", version,
		"preset", v.GetString(keyPreset),
		"document_url", effective.DocumentURL,
		"manifest", effective.Manifest.URL,
		"timeout", effective.Timeout)

	return server.New(serverConfig(v), p, logger, opts...).ListenAndServe(ctx)
}

// archivePath returns the --archive flag when given, else archive.path.
func archivePath(cmd *cobra.Command, v *viper.Viper) string {
	if path, _ := cmd.Flags().GetString("archive"); path != "" {
		return path
	}
	return v.GetString(keyArchivePath)
}
