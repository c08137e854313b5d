package core

// types.go defines the data model shared across the ingestion pipeline:
// canonical headers, parsed rows and tables, header resolution results,
// series groups, and unit breakdowns.

// Canonical header names. Source files are expected to carry these columns,
// but the parser tolerates files that rename, reorder, or omit them.
const (
	HeaderProperty   = "Property"
	HeaderTitle      = "Title"
	HeaderLabel      = "Label"
	HeaderValue      = "Value"
	HeaderTextData   = "TextData"
	HeaderExportDate = "ExportDate"
)

// AbsentColumn is the index-map sentinel for a canonical header with no
// matching source column.
const AbsentColumn = -1

// BaseHeaders returns the five required canonical headers in order.
// Returns a fresh slice so callers can't mutate the canonical set.
func BaseHeaders() []string {
	return []string{HeaderProperty, HeaderTitle, HeaderLabel, HeaderValue, HeaderTextData}
}

// ExpectedHeaders returns the canonical headers including the optional
// trailing ExportDate column.
func ExpectedHeaders() []string {
	return append(BaseHeaders(), HeaderExportDate)
}

// Row maps canonical header names to cell values. A value is a float64 when
// the source text parses fully as a number, otherwise a trimmed string.
// Every row carries exactly the resolved canonical headers as keys; columns
// absent from the source materialize as empty strings.
type Row map[string]any

// ParsedTable is the immutable result of parsing one fetched file.
// Headers preserve canonical order; Rows preserve source line order.
type ParsedTable struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// HeaderResolution is the outcome of header detection on a file's first line.
//
// When Positional is false the first line was recognized as a header row:
// IndexMap holds the source column for each canonical header (AbsentColumn
// when missing) and DataStartLine is 1. When Positional is true no canonical
// name appeared in the first line: headers were chosen by field arity, the
// index map is the identity, and DataStartLine is 0 so the first line itself
// becomes data.
type HeaderResolution struct {
	Headers       []string
	IndexMap      []int
	DataStartLine int
	Positional    bool
}

// FileRef is the logical address of one remote tabular file: a document
// container, an optional sub-path inside it, and the leaf file name.
type FileRef struct {
	Container string `json:"container"`
	SubPath   string `json:"subPath"`
	Leaf      string `json:"leaf"`
}

// SeriesGroup is one chart-ready dataset: the rows of a table sharing a
// (category, title) pair, plus the resolved field names and display label.
type SeriesGroup struct {
	Category     string `json:"category"`
	Title        string `json:"title"`
	DisplayLabel string `json:"displayLabel"`
	XField       string `json:"xField"`
	YField       string `json:"yField"`
	Rows         []Row  `json:"rows"`
}

// UnitMap maps normalized unit keys (studio, 1br, ...) to their raw textual
// values as extracted from unit-type rows. It may hold keys beyond the four
// canonical ones; those stay internal and are never rendered.
type UnitMap map[string]string

// UnitEntry is one surfaced unit count in display order.
type UnitEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// UnitBreakdown is the consumer-facing unit view: the four canonical keys in
// fixed display order (absent keys are omitted) and the resolved total.
type UnitBreakdown struct {
	Entries []UnitEntry `json:"entries"`
	Total   float64     `json:"total"`
}

// CanonicalUnitKeys returns the four unit keys surfaced to consumers, in
// display order.
func CanonicalUnitKeys() []string {
	return []string{"studio", "1br", "2br", "3br"}
}
