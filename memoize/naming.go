package memoize

import (
	"reflect"
	"runtime"
	"strings"
	"unicode"
)

// NamespaceFor derives a stable persistence namespace from a target: the
// snake_cased type name for values, the snake_cased function name for funcs.
// Reflected names carry punctuation (pointers, package paths, generic
// suffixes) that persistent key schemes reject, so everything outside
// [a-z0-9_] is normalized away.
func NamespaceFor(target any) string {
	if target == nil {
		return "memoize"
	}

	t := reflect.TypeOf(target)
	if t.Kind() == reflect.Func {
		if name := funcName(target); name != "" {
			return toSnake(name)
		}
		return "memoize"
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	if snake := toSnake(name); snake != "" {
		return snake
	}
	return "memoize"
}

// funcName returns the bare name of a function value, without package path
// or closure suffixes.
func funcName(fn any) string {
	pc := reflect.ValueOf(fn).Pointer()
	rf := runtime.FuncForPC(pc)
	if rf == nil {
		return ""
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	return name
}

// toSnake converts the provided string to snake_case using ASCII-aware
// rules. Punctuation from reflected names (pointers, generic brackets,
// dots) becomes a single underscore so namespaces stay key-safe.
func toSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	lastUnderscore := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch {
		case unicode.IsUpper(r):
			if b.Len() > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if (unicode.IsLower(prev) || unicode.IsDigit(prev) || nextLower) && !lastUnderscore {
					b.WriteByte('_')
					lastUnderscore = true
				}
			}
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false

		case unicode.IsLower(r):
			b.WriteRune(r)
			lastUnderscore = false

		case unicode.IsDigit(r):
			if b.Len() > 0 {
				prev := runes[i-1]
				if !unicode.IsDigit(prev) && prev != '_' && !lastUnderscore {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r)
			lastUnderscore = false

		case r == '_':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}

		case r == '-' || unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}

		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	return strings.Trim(b.String(), "_")
}
