package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// units.go extracts unit-mix breakdowns (studio/1BR/2BR/3BR counts) from
// free-text rows. The phrasing of these rows is human-entered and varies
// wildly, so extraction is best-effort: unusual phrasings may under-extract,
// which is an accepted limitation rather than a defect.

// propertyDetailRe matches the generic "property detail"/"property data"
// titles that sometimes carry unit counts instead of a dedicated unit-type
// section.
var propertyDetailRe = regexp.MustCompile(`(?i)property\s*(detail|data)`)

// embeddedNumberRe finds the first number in free text after cleanup.
var embeddedNumberRe = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)

// explicitTotalKeys are normalized label keys that already carry a total
// unit count, checked before falling back to summing the canonical keys.
var explicitTotalKeys = []string{"totalunits", "unitcount", "units", "total"}

// isUnitTitle reports whether a row's title marks it as a unit-type
// declaration: "unit type(s)"/"unit mix" titles, or the generic
// property-detail pattern.
func isUnitTitle(title string) bool {
	t := strings.ToLower(title)
	if strings.Contains(t, "unit type") || strings.Contains(t, "unit mix") {
		return true
	}
	return propertyDetailRe.MatchString(t)
}

// ExtractUnitMap scans one category's rows for unit-type declarations and
// returns every extracted label/value pair keyed by normalized label.
//
// A row with both a non-empty label and a non-empty value records one pair.
// The value is the Value field, falling back to TextData when Value is
// blank (hand-exported files put the count in either column). A row with a
// value but no label is treated as a compound declaration like
// "Studio: 10; 1BR: 20" and split into pairs.
//
// The returned map may hold keys beyond the four canonical ones; use
// CanonicalUnits to get the surfaced subset.
func ExtractUnitMap(table *ParsedTable, category string) UnitMap {
	units := make(UnitMap)
	if table == nil {
		return units
	}
	for _, row := range table.Rows {
		if FormatValue(row[HeaderProperty]) != category {
			continue
		}
		if !isUnitTitle(FormatValue(row[HeaderTitle])) {
			continue
		}

		label := strings.TrimSpace(FormatValue(row[HeaderLabel]))
		value := strings.TrimSpace(FormatValue(row[HeaderValue]))
		if value == "" {
			value = strings.TrimSpace(FormatValue(row[HeaderTextData]))
		}
		if value == "" {
			continue
		}

		if label != "" {
			units[NormalizeUnitLabel(label)] = value
			continue
		}
		for k, v := range parseCompoundUnits(value) {
			units[k] = v
		}
	}
	return units
}

// NormalizeUnitLabel reduces a free-text unit label to its key form:
// lowercased, whitespace removed, English number words mapped to digits,
// bedroom spellings collapsed to "br", and studio variants to "studio".
//
//	"One Bedroom" -> "1br"
//	"2 BRs"       -> "2br"
//	"ST"          -> "studio"
func NormalizeUnitLabel(label string) string {
	s := strings.ToLower(label)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	if s == "st" || s == "studio" || s == "studios" {
		return "studio"
	}

	s = strings.ReplaceAll(s, "one", "1")
	s = strings.ReplaceAll(s, "two", "2")
	s = strings.ReplaceAll(s, "three", "3")
	s = strings.ReplaceAll(s, "bedrooms", "br")
	s = strings.ReplaceAll(s, "bedroom", "br")
	if strings.HasSuffix(s, "brs") {
		s = strings.TrimSuffix(s, "brs") + "br"
	}
	return s
}

// parseCompoundUnits splits a compound declaration into normalized
// label/value pairs. Segments separated by semicolons or commas are split
// on the first colon (then dash); segments with neither fall back to a
// trailing-number split, so "Studio 10, 1BR 20" still parses.
func parseCompoundUnits(s string) map[string]string {
	out := make(map[string]string)
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ','
	}) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		label, value, ok := splitUnitPair(seg)
		if !ok {
			continue
		}
		key := NormalizeUnitLabel(label)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

// trailingNumberRe splits "1BR 20" style segments: a label followed by
// whitespace and a number.
var trailingNumberRe = regexp.MustCompile(`^(.+?)\s+([0-9][0-9,.]*)$`)

// splitUnitPair splits one compound segment into label and value text.
func splitUnitPair(seg string) (label, value string, ok bool) {
	sep := strings.Index(seg, ":")
	if sep < 0 {
		sep = strings.Index(seg, "-")
	}
	if sep > 0 {
		return strings.TrimSpace(seg[:sep]), strings.TrimSpace(seg[sep+1:]), true
	}
	if m := trailingNumberRe.FindStringSubmatch(seg); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// CanonicalUnits filters a unit map down to the four surfaced keys in
// display order. Keys with no extracted value are omitted.
func CanonicalUnits(m UnitMap) []UnitEntry {
	entries := make([]UnitEntry, 0, 4)
	for _, key := range CanonicalUnitKeys() {
		if v, ok := m[key]; ok && v != "" {
			entries = append(entries, UnitEntry{Key: key, Value: v})
		}
	}
	return entries
}

// UnitTotal resolves the total unit count for a breakdown: an explicit
// unit-count entry when one was extracted, else the numeric sum of the
// canonical keys. Values without an embedded number are skipped silently.
func UnitTotal(m UnitMap) float64 {
	for _, key := range explicitTotalKeys {
		if v, ok := m[key]; ok {
			if n, numOK := ParseEmbeddedNumber(v); numOK {
				return n
			}
		}
	}
	var sum float64
	for _, key := range CanonicalUnitKeys() {
		if v, ok := m[key]; ok {
			if n, numOK := ParseEmbeddedNumber(v); numOK {
				sum += n
			}
		}
	}
	return sum
}

// ParseEmbeddedNumber reads the first number embedded in free text after
// stripping thousands separators and parentheses, so "1,204 units" yields
// 1204. Returns false when the text carries no number.
func ParseEmbeddedNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", "(", "", ")", "").Replace(s)
	match := embeddedNumberRe.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
