package feed

import (
	"fmt"
	"sort"
	"strings"

	ext "github.com/mmcdole/gofeed/extensions"
)

// ExtractText flattens an arbitrary parsed feed node into plain text. Feed
// extensions come in many shapes: a bare string, a multi-valued element (slice),
// or an extension node carrying a text value, a url attribute and nested
// children. All leaf string content is concatenated, joined by spaces.
// Unknown shapes degrade to string coercion, nil degrades to an empty string;
// the function never panics.
func ExtractText(node any) string {
	switch v := node.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return joinParts(v)
	case ext.Extension:
		return extensionText(v)
	case *ext.Extension:
		if v == nil {
			return ""
		}
		return extensionText(*v)
	case []ext.Extension:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, extensionText(e))
		}
		return joinParts(parts)
	case map[string][]ext.Extension:
		parts := make([]string, 0, len(v))
		for _, key := range sortedKeys(v) {
			parts = append(parts, ExtractText(v[key]))
		}
		return joinParts(parts)
	case map[string]string:
		// attribute map, url wins over everything else
		if url, ok := v["url"]; ok && url != "" {
			return url
		}
		parts := make([]string, 0, len(v))
		for _, key := range sortedKeys(v) {
			parts = append(parts, v[key])
		}
		return joinParts(parts)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// extensionText collects the text value, url attribute and children of a
// single extension node
func extensionText(e ext.Extension) string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(e.Value); s != "" {
		parts = append(parts, s)
	}
	if url := e.Attrs["url"]; url != "" {
		parts = append(parts, url)
	}
	for _, key := range sortedKeys(e.Children) {
		parts = append(parts, ExtractText(e.Children[key]))
	}
	return joinParts(parts)
}

func joinParts(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
