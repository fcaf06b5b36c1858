package tabfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeCSV(t *testing.T) {
	input := "Subject ID,Visit,Description\n3000,Baseline,MPRAGE\n3001,Month 12,\"AX T2, FLAIR\"\n"

	tbl, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if got := tbl.Value(1, "Description"); got != "AX T2, FLAIR" {
		t.Errorf("quoted cell = %q, want %q", got, "AX T2, FLAIR")
	}
	if got := tbl.Value(0, "Visit"); got != "Baseline" {
		t.Errorf("Visit = %q, want Baseline", got)
	}
}

func TestDecodeCSVStripsBOM(t *testing.T) {
	input := "\ufeffPATNO,EVENT_ID\n3000,BL\n"

	tbl, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tbl.ColumnIndex("PATNO"); !ok {
		t.Fatalf("PATNO column not found; columns = %v", tbl.Columns)
	}
}

func TestDecodeCSVRaggedRows(t *testing.T) {
	input := "a,b,c\n1,2\n1,2,3,4\n"

	tbl, err := DecodeCSV(strings.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if got := tbl.Value(0, "c"); got != "" {
		t.Errorf("short row cell = %q, want empty", got)
	}
	if got := tbl.Value(1, "c"); got != "3" {
		t.Errorf("long row cell = %q, want 3", got)
	}
	for i, row := range tbl.Rows {
		if len(row) != 3 {
			t.Errorf("row %d width = %d, want 3", i, len(row))
		}
	}
}

func TestDecodeCSVEmptyInput(t *testing.T) {
	if _, err := DecodeCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestMissingColumns(t *testing.T) {
	tbl := NewTable("PATNO", "EVENT_ID")
	missing := tbl.MissingColumns("PATNO", "COHORT_DEFINITION", "EVENT_ID", "Visit")
	if len(missing) != 2 || missing[0] != "COHORT_DEFINITION" || missing[1] != "Visit" {
		t.Errorf("MissingColumns() = %v, want [COHORT_DEFINITION Visit]", missing)
	}
}

func TestValueOutOfRange(t *testing.T) {
	tbl := NewTable("a")
	tbl.Append("1")
	if got := tbl.Value(5, "a"); got != "" {
		t.Errorf("out-of-range Value() = %q, want empty", got)
	}
	if got := tbl.Value(0, "missing"); got != "" {
		t.Errorf("missing column Value() = %q, want empty", got)
	}
}

func TestEncodeCSVQuotesListCells(t *testing.T) {
	tbl := NewTable("participant_id", "datatype")
	tbl.Append("3000", "['anat', 'dwi']")

	data, err := EncodeCSV(tbl)
	if err != nil {
		t.Fatal(err)
	}
	want := "participant_id,datatype\n3000,\"['anat', 'dwi']\"\n"
	if string(data) != want {
		t.Errorf("EncodeCSV() = %q, want %q", data, want)
	}
}

func TestEncodeCSVDeterministic(t *testing.T) {
	tbl := NewTable("a", "b")
	tbl.Append("1", "2")
	tbl.Append("3", "4")

	first, err := EncodeCSV(tbl)
	if err != nil {
		t.Fatal(err)
	}
	second, err := EncodeCSV(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("expected identical bytes for repeated encodings")
	}
}

func TestWriteJSONIndent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	v := struct {
		Dwi []string `json:"dwi"`
	}{Dwi: []string{"DTI Sequence"}}

	if err := WriteJSON(path, v, 0o664); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n    \"dwi\": [\n        \"DTI Sequence\"\n    ]\n}\n"
	if string(data) != want {
		t.Errorf("WriteJSON content = %q, want %q", data, want)
	}
}

func TestEncodeList(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"empty", nil, "[]"},
		{"single", []string{"anat"}, "['anat']"},
		{"multiple", []string{"anat", "dwi", "func"}, "['anat', 'dwi', 'func']"},
		{"single quote inside", []string{"it's"}, `["it's"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeList(tt.items); got != tt.want {
				t.Errorf("EncodeList(%v) = %q, want %q", tt.items, got, tt.want)
			}
		})
	}
}

func TestParseListRoundTrip(t *testing.T) {
	for _, items := range [][]string{
		{},
		{"anat"},
		{"anat", "dwi", "func"},
		{"it's"},
	} {
		encoded := EncodeList(items)
		decoded, err := ParseList(encoded)
		if err != nil {
			t.Fatalf("ParseList(%q): %v", encoded, err)
		}
		if len(decoded) != len(items) {
			t.Fatalf("ParseList(%q) = %v, want %v", encoded, decoded, items)
		}
		for i := range items {
			if decoded[i] != items[i] {
				t.Errorf("ParseList(%q)[%d] = %q, want %q", encoded, i, decoded[i], items[i])
			}
		}
	}
}

func TestParseListErrors(t *testing.T) {
	for _, input := range []string{"", "anat", "[anat]", "['anat'", "['anat]"} {
		if _, err := ParseList(input); err == nil {
			t.Errorf("ParseList(%q): expected error", input)
		}
	}
}
