package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceValue converts raw cell text into its typed value: a float64 when
// the trimmed text parses fully as a finite number, otherwise the trimmed
// string. Empty text stays an empty string rather than coercing to zero,
// and NaN/Inf spellings stay strings.
func CoerceValue(text string) any {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n
	}
	return trimmed
}

// FormatValue renders a row value back to text. Numbers print without
// exponent notation or trailing zeros so 45000.0 round-trips as "45000".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// isBlankFields reports whether a tokenized line carries no data at all:
// zero fields or nothing but empty strings, which covers whitespace-only
// and comma-only lines.
func isBlankFields(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}

// MaterializeRows turns raw lines into Rows using a header resolution.
//
// Lines before res.DataStartLine are skipped, as are blank lines. Each
// remaining line is tokenized and mapped through res.IndexMap: canonical
// header j reads the source field at IndexMap[j] when that index exists and
// is within the tokenized field count, else an empty string. Values pass
// through CoerceValue. Row order preserves line order.
//
// Malformed rows never fail. A short row materializes with empty strings
// for its missing columns; an overlong row's extra fields are ignored.
func MaterializeRows(lines []string, res HeaderResolution) []Row {
	rows := make([]Row, 0, max(0, len(lines)-res.DataStartLine))
	for i := res.DataStartLine; i < len(lines); i++ {
		fields := Tokenize(lines[i])
		if isBlankFields(fields) {
			continue
		}
		row := make(Row, len(res.Headers))
		for j, name := range res.Headers {
			src := AbsentColumn
			if j < len(res.IndexMap) {
				src = res.IndexMap[j]
			}
			if src >= 0 && src < len(fields) {
				row[name] = CoerceValue(fields[src])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}
