package csv

import (
	"reflect"
	"strings"
	"testing"

	"shopetl/pkg/records"
)

func TestParseWithHeader(t *testing.T) {
	t.Parallel()

	in := "id,name\nC1,Ada\nC2,Grace\n"
	p := NewParser(Options{HasHeader: true})

	got, skipped, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d; want 0", skipped)
	}
	want := []records.Record{
		{"id": "C1", "name": "Ada"},
		{"id": "C2", "name": "Grace"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed = %#v; want %#v", got, want)
	}
}

func TestParseHeaderNormalizationAndBOM(t *testing.T) {
	t.Parallel()

	in := "\uFEFFOrder ID,Total Amount\nO1,100\n"
	p := NewParser(Options{HasHeader: true})

	got, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []records.Record{{"order_id": "O1", "total_amount": "100"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed = %#v; want %#v", got, want)
	}
}

func TestParseHeaderMapWins(t *testing.T) {
	t.Parallel()

	in := "KundenNr,Name\nC1,Ada\n"
	p := NewParser(Options{
		HasHeader: true,
		HeaderMap: map[string]string{"KundenNr": "id"},
	})

	got, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got[0].String("id") != "C1" {
		t.Fatalf("mapped record = %#v; want id=C1", got[0])
	}
	// Unmapped headers still get the default normalization.
	if got[0].String("name") != "Ada" {
		t.Fatalf("record = %#v; want name=Ada", got[0])
	}
}

func TestParseSkipsRaggedRows(t *testing.T) {
	t.Parallel()

	in := "id,name\nC1,Ada\nC2\nC3,Grace,extra\nC4,Eve\n"
	p := NewParser(Options{HasHeader: true})

	got, skipped, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parsed %d rows; want 2", len(got))
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d; want 2", skipped)
	}
	if got[0].String("id") != "C1" || got[1].String("id") != "C4" {
		t.Fatalf("kept ids = %s, %s; want C1, C4", got[0].String("id"), got[1].String("id"))
	}
}

func TestParseHeaderlessWithExpectedFields(t *testing.T) {
	t.Parallel()

	in := "a,b\nc,d\nragged\n"
	p := NewParser(Options{ExpectedFields: 2})

	got, skipped, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d; want 1", skipped)
	}
	want := []records.Record{
		{"col_0": "a", "col_1": "b"},
		{"col_0": "c", "col_1": "d"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed = %#v; want %#v", got, want)
	}
}

func TestParseTrimAndDelimiterAndEmpty(t *testing.T) {
	t.Parallel()

	in := "id;name\nC1 ; Ada \nC2;\n"
	p := NewParser(Options{HasHeader: true, Comma: ';', TrimSpace: true})

	got, _, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []records.Record{
		{"id": "C1", "name": "Ada"},
		{"id": "C2", "name": nil}, // empty cells decode as nil
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parsed = %#v; want %#v", got, want)
	}
}

func TestParseEmptyInputWithHeaderFails(t *testing.T) {
	t.Parallel()

	p := NewParser(Options{HasHeader: true})
	if _, _, err := p.Parse(strings.NewReader("")); err == nil {
		t.Fatal("expected error reading header from empty input")
	}
}
