package session

import (
	"fmt"
	"strings"
)

// Text renders a state value as a single string. Accumulators render one
// "- item" line per element. A nil value renders empty.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		var b strings.Builder
		for i, item := range val {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
			b.WriteString(item)
		}
		return b.String()
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
		return Text(items)
	default:
		return fmt.Sprint(val)
	}
}

// List returns the elements of an accumulator value. A scalar yields a
// one-element list and nil yields nil.
func List(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case string:
		return []string{val}
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, fmt.Sprint(item))
		}
		return items
	default:
		return []string{fmt.Sprint(val)}
	}
}
