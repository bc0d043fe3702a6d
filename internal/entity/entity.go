// Package entity declares the seven entity specs the pipeline cleans and
// joins: contracts, primary keys, foreign keys, and inter-entity dependencies.
// Everything here is data; the cleaning and scheduling machinery reads these
// specs and never hard-codes an entity name.
package entity

import "shopetl/internal/schema"

// Canonical entity names. These double as cleaned-table names.
const (
	Customers      = "customers"
	Orders         = "orders"
	Products       = "products"
	OrderItems     = "order_items"
	Stores         = "stores"
	Supplies       = "supplies"
	SupportTickets = "support_tickets"
)

// Ref declares a foreign key from this entity into a parent entity.
type Ref struct {
	Field       string // field on the child record
	Parent      string // parent entity name
	ParentField string // key field on the parent record

	// Advisory references never reject the child; an unresolved value is
	// tagged on FlagField instead (support ticket analytics do not require
	// order linkage).
	Advisory  bool
	FlagField string
}

// Spec bundles everything the pipeline needs to clean one entity.
type Spec struct {
	Name     string
	Contract schema.Contract
	Refs     []Ref
}

// Parents returns the distinct parent entity names this spec depends on.
// Advisory refs still impose scheduling order: the parent table must exist
// before the flag can be computed.
func (s Spec) Parents() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range s.Refs {
		if _, ok := seen[r.Parent]; ok {
			continue
		}
		seen[r.Parent] = struct{}{}
		out = append(out, r.Parent)
	}
	return out
}

// RequiredParents returns parents whose emptiness is fatal for this entity
// (advisory-only parents are excluded).
func (s Spec) RequiredParents() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range s.Refs {
		if r.Advisory {
			continue
		}
		if _, ok := seen[r.Parent]; ok {
			continue
		}
		seen[r.Parent] = struct{}{}
		out = append(out, r.Parent)
	}
	return out
}

// sumTolerance is the relative tolerance for the order total consistency
// check (0.01%).
const sumTolerance = 1e-4

// Specs returns the full entity set in declaration order. Callers must not
// mutate the returned specs.
func Specs() []Spec {
	return []Spec{
		{
			Name: Customers,
			Contract: schema.Contract{
				Name: Customers,
				Keys: []string{"id"},
				Fields: []schema.Field{
					{Name: "id", Type: "text", Key: true, Required: true},
					{Name: "name", Type: "text", Default: "Unknown"},
				},
			},
		},
		{
			Name: Orders,
			Contract: schema.Contract{
				Name: Orders,
				Keys: []string{"id"},
				Fields: []schema.Field{
					{Name: "id", Type: "text", Key: true, Required: true},
					{Name: "customer", Type: "text", Required: true},
					{Name: "ordered_at", Type: "date", Required: true},
					{Name: "subtotal", Type: "float", Required: true, Min: schema.F64(0)},
					{Name: "tax_paid", Type: "float", Required: true, Min: schema.F64(0)},
					{Name: "order_total", Type: "float", Required: true, Min: schema.F64(0)},
				},
				Checks: []schema.SumCheck{
					{Total: "order_total", Parts: []string{"subtotal", "tax_paid"}, RelTol: sumTolerance},
				},
			},
			Refs: []Ref{
				{Field: "customer", Parent: Customers, ParentField: "id"},
			},
		},
		{
			Name: Products,
			Contract: schema.Contract{
				Name: Products,
				Keys: []string{"sku"},
				Fields: []schema.Field{
					{Name: "sku", Type: "text", Key: true, Required: true, Upper: true},
					{Name: "name", Type: "text", Required: true},
					{Name: "price", Type: "float", Required: true, Positive: true},
					{Name: "description", Type: "text", Default: "@name"},
				},
			},
		},
		{
			Name: OrderItems,
			Contract: schema.Contract{
				Name: OrderItems,
				Keys: []string{"order_id", "sku"},
				Fields: []schema.Field{
					{Name: "order_id", Type: "text", Key: true, Required: true},
					{Name: "sku", Type: "text", Key: true, Required: true, Upper: true},
					{Name: "quantity", Type: "int", Required: true, Positive: true},
				},
			},
			Refs: []Ref{
				{Field: "order_id", Parent: Orders, ParentField: "id"},
				{Field: "sku", Parent: Products, ParentField: "sku"},
			},
		},
		{
			Name: Stores,
			Contract: schema.Contract{
				Name: Stores,
				Keys: []string{"id"},
				Fields: []schema.Field{
					{Name: "id", Type: "text", Key: true, Required: true},
					{Name: "opened_at", Type: "date", Required: true},
					{Name: "tax_rate", Type: "float", Required: true, Min: schema.F64(0), Max: schema.F64(1)},
				},
			},
		},
		{
			Name: Supplies,
			Contract: schema.Contract{
				Name: Supplies,
				Keys: []string{"sku"},
				Fields: []schema.Field{
					{Name: "sku", Type: "text", Key: true, Required: true, Upper: true},
					{Name: "cost", Type: "float", Required: true, Positive: true},
					{Name: "perishable", Type: "bool", Required: true},
				},
			},
			Refs: []Ref{
				{Field: "sku", Parent: Products, ParentField: "sku"},
			},
		},
		{
			Name: SupportTickets,
			Contract: schema.Contract{
				Name: SupportTickets,
				Keys: []string{"id"},
				Fields: []schema.Field{
					{Name: "id", Type: "text", Key: true, Required: true},
					{Name: "order_id", Type: "text"},
					{Name: "issue_type", Type: "text", Default: "Unknown"},
					{Name: "created_at", Type: "date", Required: true},
				},
			},
			Refs: []Ref{
				{Field: "order_id", Parent: Orders, ParentField: "id", Advisory: true, FlagField: "order_resolved"},
			},
		},
	}
}

// Names returns every entity name in declaration order.
func Names() []string {
	specs := Specs()
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}

// SpecByName returns the spec for name, or a zero Spec when unknown.
func SpecByName(name string) (Spec, bool) {
	for _, s := range Specs() {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
