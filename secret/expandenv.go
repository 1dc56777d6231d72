package secret

import (
	"fmt"
	"slices"
	"strings"
)

// ExpandStrict replaces every ${NAME} in s with the value of NAME from env
// and every $$ with a single $. Any other $ is copied through unchanged, so
// URLs and passwords carrying a bare $ survive expansion.
//
// All unset names are reported at once, sorted, in an error matching
// ErrUnsetVariable. A variable set to "" expands to "". A nil env reads the
// process environment.
func ExpandStrict(s string, env LookupEnvFunc) (string, error) {
	if env == nil {
		env = OSEnv
	}

	var (
		b     strings.Builder
		unset []string
	)
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch next := s[i+1]; {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			name := ""
			if end >= 0 {
				name = s[i+2 : i+2+end]
			}
			if !isVarName(name) {
				b.WriteByte('$')
				continue
			}
			if v, ok := env(name); ok {
				b.WriteString(v)
			} else if !slices.Contains(unset, name) {
				unset = append(unset, name)
			}
			i += end + 2
		default:
			b.WriteByte('$')
		}
	}

	if len(unset) > 0 {
		slices.Sort(unset)
		return "", fmt.Errorf("%w: %s", ErrUnsetVariable, strings.Join(unset, ", "))
	}
	return b.String(), nil
}

func isVarName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
