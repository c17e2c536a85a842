//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/sh"
)

// Lookup resolves the identifier in $ID with the CLI and prints the result.
// $PRESET selects the pipeline preset (default, strict, indexed).
func Lookup() error {
	id := os.Getenv("ID")
	if id == "" {
		return fmt.Errorf("set ID to the identifier to resolve, e.g. ID=ember mage lookup")
	}
	preset := os.Getenv("PRESET")
	if preset == "" {
		preset = "default"
	}
	return sh.RunV("go", "run", "-tags", buildTags, cmdPkg, "resolve", "--preset", preset, "--log-format", "text", id)
}

// Serve runs the HTTP server on $ADDR (default :8787).
func Serve() error {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8787"
	}
	return sh.RunV("go", "run", "-tags", buildTags, cmdPkg, "serve", "--addr", addr, "--log-format", "text")
}
