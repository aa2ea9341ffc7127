// Package envcfg resolves per-connector configuration values through an
// ordered search: explicit constructor options, a connector-name-prefixed
// environment variable, then shared prefixes in declared order. First match
// wins.
package envcfg

import (
	"os"
	"strings"
)

func Resolve(key, connector string, explicit map[string]string, sharedPrefixes ...string) (string, bool) {
	if v, ok := explicit[key]; ok && v != "" {
		return v, true
	}

	envKey := Normalize(key)
	if v := os.Getenv(Normalize(connector) + "_" + envKey); v != "" {
		return v, true
	}
	for _, prefix := range sharedPrefixes {
		if v := os.Getenv(Normalize(prefix) + "_" + envKey); v != "" {
			return v, true
		}
	}
	return "", false
}

// Normalize maps a name to env-var form: upper case, non-alphanumerics
// collapsed to underscores.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
