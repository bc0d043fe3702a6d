package clean

import (
	"reflect"
	"testing"

	"shopetl/internal/schema"
	"shopetl/pkg/records"
)

func customerContract() schema.Contract {
	return schema.Contract{
		Name: "customers",
		Keys: []string{"id"},
		Fields: []schema.Field{
			{Name: "id", Type: "text", Key: true, Required: true},
			{Name: "name", Type: "text", Default: "Unknown"},
		},
	}
}

// TestPipelineRunOrderAndAccounting runs the full four-step pipeline over a
// messy orders batch and checks both the surviving rows and the stats ledger.
func TestPipelineRunOrderAndAccounting(t *testing.T) {
	customers := []records.Record{{"id": "C1"}, {"id": "C2"}}
	refs := []ParentRef{{Field: "customer", Parents: KeysOf(customers, "id")}}
	p := NewPipeline("orders", orderContract(), refs)

	in := []records.Record{
		{"id": "O1", "customer": "C1", "ordered_at": "2024-01-05", "subtotal": "90", "tax_paid": "10", "order_total": "100"},
		{"id": "O2", "customer": "C2", "ordered_at": "2024-01-06", "subtotal": "40", "tax_paid": "10", "order_total": "50"},
		// duplicate key, later occurrence loses
		{"id": "O1", "customer": "C2", "ordered_at": "2024-01-07", "subtotal": "1", "tax_paid": "0", "order_total": "1"},
		// dangling customer
		{"id": "O3", "customer": "C9", "ordered_at": "2024-01-08", "subtotal": "5", "tax_paid": "0", "order_total": "5"},
		// inconsistent total
		{"id": "O4", "customer": "C1", "ordered_at": "2024-01-09", "subtotal": "10", "tax_paid": "1", "order_total": "99"},
		// missing key
		{"customer": "C1", "ordered_at": "2024-01-10", "subtotal": "1", "tax_paid": "0", "order_total": "1"},
	}

	out, st := p.Run(in)

	if len(out) != 2 {
		t.Fatalf("cleaned %d records; want 2", len(out))
	}
	if out[0].String("id") != "O1" || out[1].String("id") != "O2" {
		t.Fatalf("cleaned ids = %s, %s; want O1, O2", out[0].String("id"), out[1].String("id"))
	}
	// O1 keeps the first occurrence's customer.
	if out[0].String("customer") != "C1" {
		t.Fatalf("O1 customer = %s; want C1", out[0].String("customer"))
	}

	if st.Input != 6 || st.Output != 2 {
		t.Fatalf("Input/Output = %d/%d; want 6/2", st.Input, st.Output)
	}
	if st.Duplicates != 1 {
		t.Fatalf("Duplicates = %d; want 1", st.Duplicates)
	}
	if st.RejectedTotal() != 3 {
		t.Fatalf("RejectedTotal = %d; want 3 (sum check, missing key, dangling ref)", st.RejectedTotal())
	}
	if st.Rejected[ReasonSumCheck] != 1 || st.Rejected[ReasonMissingRequired] != 1 {
		t.Fatalf("Rejected = %#v; want one sum_check and one missing_required", st.Rejected)
	}
	if st.Rejected[ReasonUnresolvedRef+":customer"] != 1 {
		t.Fatalf("Rejected = %#v; want one unresolved_ref:customer", st.Rejected)
	}
}

// TestPipelineRunDeterministic reruns the pipeline over the same input and
// over its own output; both must reproduce the cleaned table exactly.
func TestPipelineRunDeterministic(t *testing.T) {
	customers := []records.Record{{"id": "C1"}}
	refs := []ParentRef{{Field: "customer", Parents: KeysOf(customers, "id")}}

	in := []records.Record{
		{"id": "O1", "customer": " C1 ", "ordered_at": "2024-02-01", "subtotal": "8", "tax_paid": "2", "order_total": "10"},
	}

	first, _ := NewPipeline("orders", orderContract(), refs).Run(in)
	second, _ := NewPipeline("orders", orderContract(), refs).Run(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reruns diverged:\nfirst  %#v\nsecond %#v", first, second)
	}

	again, _ := NewPipeline("orders", orderContract(), refs).Run(first)
	if !reflect.DeepEqual(first, again) {
		t.Fatalf("cleaning cleaned output changed it:\nfirst %#v\nagain %#v", first, again)
	}
}

// TestPipelineUniqueKeys verifies the cleaned table never carries two records
// with the same key tuple.
func TestPipelineUniqueKeys(t *testing.T) {
	p := NewPipeline("customers", customerContract(), nil)

	in := []records.Record{
		{"id": "C1", "name": "Ada"},
		{"id": "C2", "name": "Grace"},
		{"id": "C1", "name": "Shadow"},
		{"id": "C2", "name": "Shadow"},
		{"id": "C3"},
	}
	out, _ := p.Run(in)

	seen := map[string]struct{}{}
	for _, rec := range out {
		id := rec.String("id")
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate key %q in cleaned output", id)
		}
		seen[id] = struct{}{}
	}
	if len(out) != 3 {
		t.Fatalf("cleaned %d records; want 3", len(out))
	}
}
