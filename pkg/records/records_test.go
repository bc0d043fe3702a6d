package records

import (
	"testing"
	"time"
)

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	orig := Record{"id": "A1", "qty": int64(2)}
	cp := orig.Clone()
	cp["id"] = "B2"
	cp["extra"] = true

	if orig.String("id") != "A1" {
		t.Fatalf("clone mutation leaked into original: %#v", orig)
	}
	if _, ok := orig["extra"]; ok {
		t.Fatalf("clone added key to original: %#v", orig)
	}
}

func TestEmpty(t *testing.T) {
	t.Parallel()

	r := Record{"a": "", "b": nil, "c": "x", "d": 0}
	cases := []struct {
		field string
		want  bool
	}{
		{"a", true},
		{"b", true},
		{"missing", true},
		{"c", false},
		{"d", false}, // zero is a value, not emptiness
	}
	for _, tc := range cases {
		if got := r.Empty(tc.field); got != tc.want {
			t.Fatalf("Empty(%q) = %v; want %v", tc.field, got, tc.want)
		}
	}
}

func TestStringConversions(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	r := Record{
		"s": "hello",
		"i": 7,
		"l": int64(42),
		"f": 2.5,
		"b": true,
		"t": ts,
	}

	cases := []struct {
		field string
		want  string
	}{
		{"s", "hello"},
		{"i", "7"},
		{"l", "42"},
		{"f", "2.5"},
		{"b", "true"},
		{"t", "2024-05-01T12:30:00Z"},
		{"missing", ""},
	}
	for _, tc := range cases {
		if got := r.String(tc.field); got != tc.want {
			t.Fatalf("String(%q) = %q; want %q", tc.field, got, tc.want)
		}
	}
}

func TestFloatCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{42.5, 42.5, true},
		{7, 7, true},
		{int64(9), 9, true},
		{"3.14", 3.14, true},
		{"abc", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tc := range cases {
		got, ok := Float(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Float(%#v) = (%v, %v); want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestIntCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{7, 7, true},
		{int64(9), 9, true},
		{3.0, 3, true},  // integral float converts
		{3.5, 0, false}, // fractional float does not
		{"12", 12, true},
		{"12.5", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := Int(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("Int(%#v) = (%v, %v); want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestTimeAccessor(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	r := Record{"t": ts, "s": "2024-05-01"}

	if got, ok := r.Time("t"); !ok || !got.Equal(ts) {
		t.Fatalf("Time(t) = (%v, %v)", got, ok)
	}
	// Strings are not parsed here; normalization owns date parsing.
	if _, ok := r.Time("s"); ok {
		t.Fatal("Time(s) should not parse strings")
	}
}
