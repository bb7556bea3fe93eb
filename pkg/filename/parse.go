package filename

import (
	"errors"
	"strings"
)

var errMalformedBrackets = errors.New("timestamp format must be wrapped in [ ]")

type segment struct {
	token bool
	// name is the token without delimiters and quotes
	name string
	// text is the segment as written
	text string
}

// parse splits a template into literal text and %token% segments. A token may be wrapped
// in single quotes inside its delimiters, as in %'vx'%. An unmatched % is literal text.
func parse(template string) []segment {
	segments := []segment{}
	rest := template

	for rest != "" {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			segments = append(segments, segment{text: rest})
			break
		}

		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			segments = append(segments, segment{text: rest})
			break
		}
		end += start + 1

		if start > 0 {
			segments = append(segments, segment{text: rest[:start]})
		}

		raw := rest[start : end+1]
		name := strings.TrimSpace(rest[start+1 : end])
		if len(name) >= 2 && strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") {
			name = name[1 : len(name)-1]
		}

		if name == "" {
			segments = append(segments, segment{text: raw})
		} else {
			segments = append(segments, segment{token: true, name: name, text: raw})
		}
		rest = rest[end+1:]
	}

	return segments
}
