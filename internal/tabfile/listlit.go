package tabfile

import (
	"fmt"
	"strings"
)

// EncodeList renders items as a bracketed, quoted list literal, the
// format dataframe tooling writes for list-valued cells: ['a', 'b'].
// An empty list renders as [].
func EncodeList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = quoteItem(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Items are single-quoted unless they contain a single quote, in which
// case double quotes are used instead.
func quoteItem(s string) string {
	if strings.Contains(s, "'") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return "'" + s + "'"
}

// ParseList decodes a bracketed list literal back into its items.
func ParseList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("not a list literal: %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	items := []string{}
	i := 0
	for i < len(inner) {
		for i < len(inner) && (inner[i] == ' ' || inner[i] == ',') {
			i++
		}
		if i >= len(inner) {
			break
		}
		quote := inner[i]
		if quote != '\'' && quote != '"' {
			return nil, fmt.Errorf("unquoted item in list literal: %q", s)
		}
		i++
		var b strings.Builder
		closed := false
		for i < len(inner) {
			c := inner[i]
			if c == '\\' && i+1 < len(inner) {
				b.WriteByte(inner[i+1])
				i += 2
				continue
			}
			if c == quote {
				closed = true
				i++
				break
			}
			b.WriteByte(c)
			i++
		}
		if !closed {
			return nil, fmt.Errorf("unterminated item in list literal: %q", s)
		}
		items = append(items, b.String())
	}
	return items, nil
}
