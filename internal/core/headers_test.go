package core

import (
	"reflect"
	"testing"
)

func TestResolveHeaders_CanonicalRow(t *testing.T) {
	first := []string{"Property", "Title", "Label", "Value", "TextData"}

	res := ResolveHeaders(first)

	if res.Positional {
		t.Error("Positional = true, want false for a header row")
	}
	if res.DataStartLine != 1 {
		t.Errorf("DataStartLine = %d, want 1", res.DataStartLine)
	}
	if !reflect.DeepEqual(res.Headers, BaseHeaders()) {
		t.Errorf("Headers = %v, want %v", res.Headers, BaseHeaders())
	}
	wantIndex := []int{0, 1, 2, 3, 4}
	if !reflect.DeepEqual(res.IndexMap, wantIndex) {
		t.Errorf("IndexMap = %v, want %v", res.IndexMap, wantIndex)
	}
}

func TestResolveHeaders_WithExportDate(t *testing.T) {
	first := []string{"Property", "Title", "Label", "Value", "TextData", "ExportDate"}

	res := ResolveHeaders(first)

	if !reflect.DeepEqual(res.Headers, ExpectedHeaders()) {
		t.Errorf("Headers = %v, want %v", res.Headers, ExpectedHeaders())
	}
	wantIndex := []int{0, 1, 2, 3, 4, 5}
	if !reflect.DeepEqual(res.IndexMap, wantIndex) {
		t.Errorf("IndexMap = %v, want %v", res.IndexMap, wantIndex)
	}
	if res.DataStartLine != 1 {
		t.Errorf("DataStartLine = %d, want 1", res.DataStartLine)
	}
}

func TestResolveHeaders_CaseInsensitive(t *testing.T) {
	first := []string{"property", "TITLE", "label", "VALUE", "textdata"}

	res := ResolveHeaders(first)

	if res.Positional {
		t.Error("Positional = true, want header match regardless of case")
	}
	if !reflect.DeepEqual(res.IndexMap, []int{0, 1, 2, 3, 4}) {
		t.Errorf("IndexMap = %v, want identity", res.IndexMap)
	}
}

func TestResolveHeaders_PaddedNames(t *testing.T) {
	first := []string{" Property ", "Title", "Label", "Value", "TextData"}

	res := ResolveHeaders(first)

	if res.Positional {
		t.Error("Positional = true, want header match for padded names")
	}
}

func TestResolveHeaders_ReorderedColumns(t *testing.T) {
	first := []string{"Title", "Property", "Value", "Label", "TextData"}

	res := ResolveHeaders(first)

	// IndexMap is ordered by canonical header, pointing at source positions.
	wantIndex := []int{1, 0, 3, 2, 4}
	if !reflect.DeepEqual(res.IndexMap, wantIndex) {
		t.Errorf("IndexMap = %v, want %v", res.IndexMap, wantIndex)
	}
}

func TestResolveHeaders_PartialMatch(t *testing.T) {
	first := []string{"Property", "Foo", "Bar", "Baz", "Qux"}

	res := ResolveHeaders(first)

	if res.Positional {
		t.Error("Positional = true, want header branch when any name matches")
	}
	if res.DataStartLine != 1 {
		t.Errorf("DataStartLine = %d, want 1", res.DataStartLine)
	}
	wantIndex := []int{0, AbsentColumn, AbsentColumn, AbsentColumn, AbsentColumn}
	if !reflect.DeepEqual(res.IndexMap, wantIndex) {
		t.Errorf("IndexMap = %v, want %v", res.IndexMap, wantIndex)
	}
}

func TestResolveHeaders_Headerless(t *testing.T) {
	tests := []struct {
		name        string
		first       []string
		wantHeaders []string
	}{
		{
			name:        "five fields takes base headers",
			first:       []string{"Alpha", "Revenue", "Q1", "45000", "note"},
			wantHeaders: BaseHeaders(),
		},
		{
			name:        "three fields truncates base headers",
			first:       []string{"Alpha", "Revenue", "Q1"},
			wantHeaders: []string{HeaderProperty, HeaderTitle, HeaderLabel},
		},
		{
			name:        "seven fields takes full expected set",
			first:       []string{"a", "b", "c", "d", "e", "f", "g"},
			wantHeaders: ExpectedHeaders(),
		},
		{
			name:        "single field",
			first:       []string{"Alpha"},
			wantHeaders: []string{HeaderProperty},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResolveHeaders(tt.first)

			if !res.Positional {
				t.Error("Positional = false, want true for headerless row")
			}
			if res.DataStartLine != 0 {
				t.Errorf("DataStartLine = %d, want 0", res.DataStartLine)
			}
			if !reflect.DeepEqual(res.Headers, tt.wantHeaders) {
				t.Errorf("Headers = %v, want %v", res.Headers, tt.wantHeaders)
			}
			for i, src := range res.IndexMap {
				if src != i {
					t.Errorf("IndexMap[%d] = %d, want identity mapping", i, src)
				}
			}
		})
	}
}

func TestResolveHeaders_DataValueTriggersHeaderBranch(t *testing.T) {
	// A first line whose property cell happens to spell a header name is
	// treated as a header row. Callers cannot distinguish this case.
	first := []string{"Value", "10", "20", "30", "40"}

	res := ResolveHeaders(first)

	if res.Positional {
		t.Error("Positional = true, want header branch when a cell matches a header name")
	}
}
