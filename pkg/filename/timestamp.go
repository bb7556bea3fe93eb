package filename

import (
	"fmt"
	"strings"
	"time"
)

// timestampTokens maps date pattern specifiers to Go layout fragments, longest first so
// "yyyy" wins over "yy".
var timestampTokens = []struct {
	pattern string
	layout  string
}{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"H", "15"},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"tt", "PM"},
}

// FormatTimestamp formats t with a pattern such as "MM-dd-yyyy". Letters must be known
// specifiers; other characters are copied, and text in single quotes or after a backslash
// is copied verbatim.
func FormatTimestamp(t time.Time, pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", fmt.Errorf("empty timestamp format")
	}

	var out strings.Builder
	for i := 0; i < len(pattern); {
		c := pattern[i]

		switch {
		case c == '\'':
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				return "", fmt.Errorf("unterminated quote in timestamp format %q", pattern)
			}
			out.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
		case c == '\\':
			if i+1 >= len(pattern) {
				return "", fmt.Errorf("dangling escape in timestamp format %q", pattern)
			}
			out.WriteByte(pattern[i+1])
			i += 2
		case isLetter(c):
			matched := false
			for _, token := range timestampTokens {
				if strings.HasPrefix(pattern[i:], token.pattern) {
					out.WriteString(t.Format(token.layout))
					i += len(token.pattern)
					matched = true
					break
				}
			}
			if !matched {
				return "", fmt.Errorf("unknown specifier %q in timestamp format %q", c, pattern)
			}
		default:
			out.WriteByte(c)
			i++
		}
	}

	return out.String(), nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
