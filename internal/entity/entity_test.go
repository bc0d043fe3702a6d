package entity

import (
	"reflect"
	"testing"

	"shopetl/internal/schema"
)

func TestSpecsNamesAreUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}
	for _, s := range Specs() {
		if s.Name == "" {
			t.Fatal("spec with empty name")
		}
		if _, dup := seen[s.Name]; dup {
			t.Fatalf("duplicate entity name %q", s.Name)
		}
		seen[s.Name] = struct{}{}
		if s.Contract.Name != s.Name {
			t.Fatalf("%s: contract name %q does not match", s.Name, s.Contract.Name)
		}
	}
}

// Every declared reference must point at an existing entity, and the parent
// field must be part of the parent's key set so lookups are well-defined.
func TestSpecsRefsResolve(t *testing.T) {
	t.Parallel()

	for _, s := range Specs() {
		for _, ref := range s.Refs {
			parent, ok := SpecByName(ref.Parent)
			if !ok {
				t.Fatalf("%s: ref %q points at unknown entity %q", s.Name, ref.Field, ref.Parent)
			}
			if !contains(parent.Contract.Keys, ref.ParentField) {
				t.Fatalf("%s: ref %q targets %s.%s, which is not a key field",
					s.Name, ref.Field, ref.Parent, ref.ParentField)
			}
			if !hasField(s.Contract, ref.Field) {
				t.Fatalf("%s: ref field %q missing from contract", s.Name, ref.Field)
			}
			if ref.Advisory && ref.FlagField == "" {
				t.Fatalf("%s: advisory ref %q has no flag field", s.Name, ref.Field)
			}
		}
	}
}

func TestSpecsKeysExistInContracts(t *testing.T) {
	t.Parallel()

	for _, s := range Specs() {
		if len(s.Contract.Keys) == 0 {
			t.Fatalf("%s: contract declares no keys", s.Name)
		}
		for _, k := range s.Contract.Keys {
			if !hasField(s.Contract, k) {
				t.Fatalf("%s: key %q missing from contract fields", s.Name, k)
			}
		}
	}
}

func TestParentsAndRequiredParents(t *testing.T) {
	t.Parallel()

	items, ok := SpecByName(OrderItems)
	if !ok {
		t.Fatal("order_items spec missing")
	}
	if got := items.Parents(); !reflect.DeepEqual(got, []string{Orders, Products}) {
		t.Fatalf("order_items parents = %v; want [orders products]", got)
	}
	if got := items.RequiredParents(); !reflect.DeepEqual(got, []string{Orders, Products}) {
		t.Fatalf("order_items required parents = %v", got)
	}

	// Support tickets depend on orders for scheduling, but the dependency is
	// advisory: an empty orders table must not block them.
	tickets, _ := SpecByName(SupportTickets)
	if got := tickets.Parents(); !reflect.DeepEqual(got, []string{Orders}) {
		t.Fatalf("support_tickets parents = %v; want [orders]", got)
	}
	if got := tickets.RequiredParents(); len(got) != 0 {
		t.Fatalf("support_tickets required parents = %v; want none", got)
	}
}

func TestNamesMatchSpecsOrder(t *testing.T) {
	t.Parallel()

	specs := Specs()
	names := Names()
	if len(names) != len(specs) {
		t.Fatalf("Names() = %d entries; want %d", len(names), len(specs))
	}
	for i, s := range specs {
		if names[i] != s.Name {
			t.Fatalf("Names()[%d] = %q; want %q", i, names[i], s.Name)
		}
	}
}

func TestSpecByNameUnknown(t *testing.T) {
	t.Parallel()

	if _, ok := SpecByName("ghosts"); ok {
		t.Fatal("SpecByName(ghosts) should not resolve")
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func hasField(c schema.Contract, name string) bool {
	return c.FieldByName(name) != nil
}
