package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

const maxParamLength = 100

var keySanitizer = strings.NewReplacer(" ", "_", ":", "_")

// GenerateKey builds a deterministic key from a prefix and parameters.
// Parameters are sorted by name and nil values skipped so equivalent requests
// share a key. Long parameter strings are replaced by a short MD5 digest.
func GenerateKey(prefix string, params map[string]any) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if isNil(value) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+canonicalValue(params[name]))
	}
	joined := strings.Join(parts, "&")

	if len(joined) > maxParamLength {
		sum := md5.Sum([]byte(joined))
		return prefix + ":" + hex.EncodeToString(sum[:])[:12]
	}
	return prefix + ":" + keySanitizer.Replace(joined)
}

// ScopedPrefix appends a controller scope so entries can be invalidated per controller
func ScopedPrefix(prefix, controllerID string) string {
	if controllerID == "" {
		controllerID = "_all"
	}
	return prefix + ":" + keySanitizer.Replace(controllerID)
}

// ControllerPattern matches every scoped entry of one controller
func ControllerPattern(controllerID string) string {
	return "analytics:*:" + escapeGlob(keySanitizer.Replace(controllerID)) + ":*"
}

func isNil(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case *time.Time:
		return t == nil
	case *int:
		return t == nil
	case *string:
		return t == nil
	}
	return false
}

func canonicalValue(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case *int:
		return fmt.Sprint(*t)
	case *string:
		return *t
	case []string:
		return strings.Join(t, ",")
	case time.Duration:
		return t.String()
	}
	return fmt.Sprint(v)
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
