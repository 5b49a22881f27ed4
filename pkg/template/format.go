// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Values maps placeholder keys to replacement values. Strings are inserted
// verbatim, numbers in their shortest decimal form, anything else through fmt.
type Values map[string]any

// Format returns a copy of n with placeholders substituted from values. The
// input tree is never modified. Placeholders without a value are left as is.
func Format(n Node, values Values) Node {
	switch v := n.(type) {
	case String:
		return String(formatString(string(v), values))
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = Format(item, values)
		}
		return out
	case Object:
		out := make(Object, len(v))
		for i, f := range v {
			out[i] = Field{Key: f.Key, Value: Format(f.Value, values)}
		}
		return out
	default:
		return n
	}
}

// formatString scans s once from left to right. Each key is replaced at its
// first occurrence only and inserted text is never scanned again.
func formatString(s string, values Values) string {
	if len(values) == 0 || !strings.Contains(s, "{") {
		return s
	}

	var sb strings.Builder
	used := make(map[string]bool, len(values))
	for i := 0; i < len(s); {
		if s[i] == '{' {
			if end := strings.IndexByte(s[i+1:], '}'); end >= 0 {
				key := s[i+1 : i+1+end]
				if val, ok := values[key]; ok && !used[key] {
					used[key] = true
					sb.WriteString(stringify(val))
					i += end + 2
					continue
				}
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String()
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint:
		return strconv.FormatUint(uint64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Placeholders returns the distinct keys referenced by n in order of first
// appearance.
func Placeholders(n Node) []string {
	seen := make(map[string]bool)
	var keys []string
	walkStrings(n, func(s string) {
		for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				keys = append(keys, m[1])
			}
		}
	})
	return keys
}

func walkStrings(n Node, fn func(string)) {
	switch v := n.(type) {
	case String:
		fn(string(v))
	case Array:
		for _, item := range v {
			walkStrings(item, fn)
		}
	case Object:
		for _, f := range v {
			walkStrings(f.Value, fn)
		}
	}
}
