package pagelet

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`/`, `\/`,
	`'`, `\'`,
	`"`, `\"`,
	"\r", `\r`,
	"\n", `\n`,
)

// Escape prepares s for embedding in a quoted script string literal.
func Escape(s string) string { return escaper.Replace(s) }

// Unescape reverses Escape and also decodes \t and \uXXXX sequences. Unknown
// escapes are kept as written.
func Unescape(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '\\', '/', '\'', '"':
			b.WriteByte(s[i])
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'u':
			if i+5 <= len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil && utf8.ValidRune(rune(v)) {
					b.WriteRune(rune(v))
					i += 4
					continue
				}
			}
			b.WriteString(`\u`)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
