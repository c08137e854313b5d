package core

import "strings"

// xFieldName and yFieldName are matched case-insensitively against table
// headers when resolving which columns feed a chart's axes.
const (
	xFieldName = "label"
	yFieldName = "value"
)

// GroupBySeries partitions one category's rows into chart-ready series.
//
// Rows whose category (Property) field equals the requested value are
// grouped by their title field, preserving first-seen title order and
// excluding blank titles. Each group resolves its x-field (a header named
// "label", else the first header), its y-field (a header named "value",
// else the second header, else the first), and its display label (the
// override for the sanitized title when one is supplied, else the raw
// title).
func GroupBySeries(table *ParsedTable, category string, labels map[string]string) []SeriesGroup {
	if table == nil {
		return nil
	}

	xField := headerNamed(table.Headers, xFieldName, 0)
	yField := headerNamed(table.Headers, yFieldName, 1)

	var titles []string
	byTitle := make(map[string][]Row)
	for _, row := range table.Rows {
		if FormatValue(row[HeaderProperty]) != category {
			continue
		}
		title := strings.TrimSpace(FormatValue(row[HeaderTitle]))
		if title == "" {
			continue
		}
		if _, seen := byTitle[title]; !seen {
			titles = append(titles, title)
		}
		byTitle[title] = append(byTitle[title], row)
	}

	groups := make([]SeriesGroup, 0, len(titles))
	for _, title := range titles {
		display := title
		if labels != nil {
			if override, ok := labels[SanitizeTitleKey(title)]; ok && override != "" {
				display = override
			}
		}
		groups = append(groups, SeriesGroup{
			Category:     category,
			Title:        title,
			DisplayLabel: display,
			XField:       xField,
			YField:       yField,
			Rows:         byTitle[title],
		})
	}
	return groups
}

// Categories returns the distinct non-blank category (Property) values in a
// table, preserving first-seen order.
func Categories(table *ParsedTable) []string {
	if table == nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	for _, row := range table.Rows {
		cat := strings.TrimSpace(FormatValue(row[HeaderProperty]))
		if cat == "" || seen[cat] {
			continue
		}
		seen[cat] = true
		out = append(out, cat)
	}
	return out
}

// SanitizeTitleKey converts a series title into the key used for display
// label overrides: every rune outside [A-Za-z0-9] becomes an underscore.
func SanitizeTitleKey(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// headerNamed returns the header matching name case-insensitively. When no
// header matches, it falls back to the header at fallbackIdx, clamped to
// the first header for short tables.
func headerNamed(headers []string, name string, fallbackIdx int) string {
	for _, h := range headers {
		if strings.EqualFold(h, name) {
			return h
		}
	}
	if len(headers) == 0 {
		return ""
	}
	if fallbackIdx >= len(headers) {
		fallbackIdx = 0
	}
	return headers[fallbackIdx]
}
