// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"regexp"
	"strings"
)

// wikiLinkRe matches double-bracket references like [[Alpha]] or
// [[Alpha|shown text]].
var wikiLinkRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// Links returns the inner text of every [[...]] reference in raw, in order
// of appearance. With dedupe set only the first occurrence of each target
// is kept. Targets are not validated.
func Links(raw string, dedupe bool) []string {
	links := []string{}
	seen := make(map[string]bool)
	for _, m := range wikiLinkRe.FindAllStringSubmatch(raw, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if dedupe {
			if seen[target] {
				continue
			}
			seen[target] = true
		}
		links = append(links, target)
	}
	return links
}
