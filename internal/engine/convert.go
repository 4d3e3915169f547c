package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// formatWireValue renders a caller-supplied value as a PUT form
// parameter. Booleans use the protocol's capitalised spelling.
func formatWireValue(v any) (string, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case string:
		return x, nil
	default:
		if n, ok := toFloat(v); ok {
			return formatWireNumber(n), nil
		}
		return "", fmt.Errorf("engine: cannot encode %T as wire parameter", v)
	}
}

// formatWireNumber renders a number without a spurious fraction: whole
// values are written as integers, which is what devices expect for
// index- and count-typed members.
func formatWireNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// toStringList converts a decoded JSON array to the option-name list
// used by list-mode controls.
func toStringList(v any) []string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
