package core

import "strings"

// ResolveHeaders decides whether a file's first line is a header row and
// builds the canonical-header index map.
//
// Each canonical name is searched case-insensitively among the first line's
// fields. When none match, the file is treated as header-less: headers are
// chosen by field arity, the index map is the positional identity, and the
// first line itself becomes data. When at least one name matches, the first
// line is trusted as a header row even if the match is partial; unmatched
// canonical headers map to AbsentColumn and materialize as empty strings.
//
// Upstream files are hand-exported and inconsistent, so this heuristic
// deliberately trades strict correctness for tolerance of partial,
// reordered, or entirely absent headers. A data value that happens to equal
// a canonical name will pull the file into the header branch; callers that
// control their exports can avoid this, the parser cannot.
func ResolveHeaders(first []string) HeaderResolution {
	base := BaseHeaders()
	expected := ExpectedHeaders()

	positions := make([]int, len(expected))
	matched := false
	for i, name := range expected {
		positions[i] = AbsentColumn
		for j, field := range first {
			if strings.EqualFold(strings.TrimSpace(field), name) {
				positions[i] = j
				matched = true
				break
			}
		}
	}

	if !matched {
		headers := positionalHeaders(len(first))
		identity := make([]int, len(headers))
		for i := range identity {
			identity[i] = i
		}
		return HeaderResolution{
			Headers:       headers,
			IndexMap:      identity,
			DataStartLine: 0,
			Positional:    true,
		}
	}

	// Header row present. The optional ExportDate column joins the resolved
	// set only when the file actually carries it.
	headers := base
	indexMap := positions[:len(base)]
	if positions[len(expected)-1] != AbsentColumn {
		headers = expected
		indexMap = positions
	}
	return HeaderResolution{
		Headers:       headers,
		IndexMap:      indexMap,
		DataStartLine: 1,
	}
}

// positionalHeaders picks canonical names for a header-less file based on
// how many fields its first line has.
func positionalHeaders(fieldCount int) []string {
	base := BaseHeaders()
	expected := ExpectedHeaders()
	switch {
	case fieldCount == len(base):
		return base
	case fieldCount >= len(expected):
		return expected
	case fieldCount > 0:
		return base[:fieldCount]
	default:
		return base
	}
}
