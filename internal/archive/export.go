// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// Export formats accepted by Export.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Export writes every entry matching opts to w as YAML or JSON.
func (s *Store) Export(ctx context.Context, w io.Writer, format string, opts QueryOptions) error {
	opts.MaxResults = exportLimit
	entries, err := s.Search(ctx, opts)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}

	switch format {
	case FormatYAML, "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want %s or %s)", format, FormatYAML, FormatJSON)
	}
}
