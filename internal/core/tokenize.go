package core

import "strings"

// Tokenize splits one raw CSV line into fields.
//
// The scan runs left to right with an in-quotes flag. A quote toggles the
// flag, except that a doubled quote inside a quoted region emits a literal
// quote and consumes both characters. A comma outside quotes ends the
// current field. Every field is trimmed of surrounding whitespace.
//
// Malformed quoting never errors: an unterminated quote absorbs the rest of
// the line into the open field. An empty line yields a single empty field
// and a trailing comma yields a trailing empty field, so the result always
// has at least one element.
func Tokenize(line string) []string {
	fields := make([]string, 0, 8)
	var cur strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				// Escaped quote: emit one literal quote, consume both.
				cur.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}

	return append(fields, strings.TrimSpace(cur.String()))
}
