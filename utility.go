package proc

import (
	"os"
	"strings"
	"unicode"
)

// DevNull opens the null device for both reading and writing. The
// caller owns the returned file
func DevNull() (*os.File, error) {
	return os.OpenFile(os.DevNull, os.O_RDWR, 0)
}

// ParseCommandArgs gets a list of strings and parses their content
// splitting them into separated arguments. Whitespace separates
// arguments, while text between <'> or <"> is kept as it is, so that
// `a 'b c'"d"` becomes [a, b cd]. Outside single quotes a backslash
// escapes the next character. An unterminated quote extends to the
// end of the string
func ParseCommandArgs(args ...string) []string {
	a := make([]string, 0)
	for _, s := range args {
		a = append(a, splitArgs(s)...)
	}
	return a
}

func splitArgs(s string) []string {
	var (
		res     []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inArg = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inArg = r, true
		case unicode.IsSpace(r):
			if inArg {
				res = append(res, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}

	if escaped {
		cur.WriteRune('\\')
	}
	if inArg {
		res = append(res, cur.String())
	}
	return res
}
