package core

import (
	"strings"
	"unicode/utf8"
)

// ParseTable parses the full text of a fetched file into a ParsedTable.
//
// The text is split into lines, headers are resolved from the first content
// line, and the remaining lines materialize into rows. Individual malformed
// rows are skipped or defaulted, never fatal; the only hard failure is
// input with no content lines at all, reported as ErrEmptyInput.
func ParseTable(text string) (*ParsedTable, error) {
	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	res := ResolveHeaders(Tokenize(lines[0]))
	rows := MaterializeRows(lines, res)

	return &ParsedTable{Headers: res.Headers, Rows: rows}, nil
}

// ParseText sanitizes raw fetched text and parses it. Use this at the fetch
// boundary where the body may carry a BOM or invalid UTF-8.
func ParseText(text string) (*ParsedTable, error) {
	return ParseTable(SanitizeText(text))
}

// SplitLines splits raw file text into lines: a UTF-8 BOM is trimmed from
// the start, carriage returns from line ends, and leading/trailing blank
// lines are dropped so header resolution sees the first content line.
// Interior blank lines are preserved for the materializer to skip.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\uFEFF")

	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSuffix(l, "\r"))
	}

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// SanitizeText replaces invalid UTF-8 sequences with the Unicode
// replacement character. Valid input is returned unchanged without
// allocating.
func SanitizeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}
