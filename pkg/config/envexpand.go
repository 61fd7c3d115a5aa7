package config

import (
	"os"
	"strings"
)

// ExpandEnv expands "${VAR}" and "${VAR:-default}" references in s
// against the process environment. Unknown references with no default
// expand to the empty string, matching the teacher's envexpand
// behavior (a missing config value should not abort a load, it should
// surface as an empty string the validator can then reject if the
// field is required).
func ExpandEnv(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end == -1 {
				b.WriteByte(s[i])
				i++
				continue
			}
			expr := s[i+2 : i+2+end]
			b.WriteString(resolveExpr(expr))
			i = i + 2 + end + 1
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func resolveExpr(expr string) string {
	name, def, hasDefault := strings.Cut(expr, ":-")
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	if hasDefault {
		return def
	}
	return ""
}
