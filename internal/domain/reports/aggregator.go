package reports

import (
	"slices"
)

// Row is anything the aggregator can fold: projected rows and pivoted rows.
type Row interface {
	// OrderIDs returns the distinct orders the row's amounts come from.
	OrderIDs() []string
	Amounts() Totals
	// Field returns a named column; ok is false when the row has no such column.
	Field(f Field) (string, bool)
}

// Accumulator folds rows into one Totals value and, when built with a
// distinct field, tracks the distinct values of that field.
// An Accumulator belongs to one report call.
type Accumulator struct {
	totals   Totals
	distinct Field
	elements map[string]struct{}
}

// NewAccumulator returns an accumulator that only sums.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// NewAccumulatorBy returns an accumulator that also records the distinct
// values of field, so the sum can later be averaged over them.
func NewAccumulatorBy(field Field) *Accumulator {
	return &Accumulator{distinct: field, elements: make(map[string]struct{})}
}

// Add folds one row.
func (a *Accumulator) Add(r Row) {
	a.totals = a.totals.Add(r.Amounts())
	if a.elements == nil {
		return
	}
	if a.distinct == FieldOrderID {
		for _, id := range r.OrderIDs() {
			a.elements[id] = struct{}{}
		}
		return
	}
	if v, ok := r.Field(a.distinct); ok {
		a.elements[v] = struct{}{}
	}
}

// Accumulate folds rows into a and returns it.
func Accumulate[R Row](a *Accumulator, rows []R) *Accumulator {
	for _, r := range rows {
		a.Add(r)
	}
	return a
}

// Totals returns the running sum.
func (a *Accumulator) Totals() Totals {
	return a.totals
}

// Elements returns the number of distinct values seen.
func (a *Accumulator) Elements() int {
	return len(a.elements)
}

// Sum returns the running sum as a Summary with no element count.
func (a *Accumulator) Sum() Summary {
	return Summary{Totals: a.totals}
}

// Average divides the running sum by the number of distinct elements.
// Without elements every amount is zero.
func (a *Accumulator) Average() Summary {
	n := len(a.elements)
	if n == 0 {
		return Summary{}
	}
	return Summary{
		Totals:           a.totals.DivRound(int64(n)),
		NumberOfElements: n,
	}
}

// GroupSpec names the key, label and passthrough fields of a grouping.
type GroupSpec struct {
	Group Field
	Label Field
	Extra []Field
}

// GroupEntry is the running totals of one group.
type GroupEntry struct {
	Key   string
	Label string
	Extra map[Field]string
	// OrderID is the order of the last row folded into the group.
	OrderID          string
	Totals           Totals
	NumberOfElements int

	orders map[string]struct{}
}

// OrderIDs returns the distinct orders of the group, sorted.
func (e *GroupEntry) OrderIDs() []string {
	ids := make([]string, 0, len(e.orders))
	for id := range e.orders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// GroupedTotals is the result of a grouped aggregation.
// Keys keep the order in which groups were first seen.
type GroupedTotals struct {
	Spec    GroupSpec
	Keys    []string
	Entries map[string]*GroupEntry
}

// Get returns the entry of key.
func (g GroupedTotals) Get(key string) (*GroupEntry, bool) {
	e, ok := g.Entries[key]
	return e, ok
}

// Len returns the number of groups.
func (g GroupedTotals) Len() int {
	return len(g.Keys)
}

// Each calls fn for every entry in key order.
func (g GroupedTotals) Each(fn func(e *GroupEntry)) {
	for _, k := range g.Keys {
		fn(g.Entries[k])
	}
}

// GroupAccumulator folds rows into per-group totals. Successive calls with
// different row sets merge into the same groups.
type GroupAccumulator struct {
	spec    GroupSpec
	keys    []string
	entries map[string]*GroupEntry
}

// NewGroupAccumulator returns an empty accumulator for spec.
func NewGroupAccumulator(spec GroupSpec) *GroupAccumulator {
	return &GroupAccumulator{spec: spec, entries: make(map[string]*GroupEntry)}
}

// Add folds one row into its group, creating the group on first sight.
// Label and extra fields are stamped from the row, empty when the row lacks them.
func (g *GroupAccumulator) Add(r Row) {
	key, _ := r.Field(g.spec.Group)
	e, ok := g.entries[key]
	if !ok {
		e = &GroupEntry{Key: key, orders: make(map[string]struct{})}
		if len(g.spec.Extra) > 0 {
			e.Extra = make(map[Field]string, len(g.spec.Extra))
		}
		g.entries[key] = e
		g.keys = append(g.keys, key)
	}

	e.Totals = e.Totals.Add(r.Amounts())
	for _, id := range r.OrderIDs() {
		e.orders[id] = struct{}{}
	}
	e.OrderID, _ = r.Field(FieldOrderID)

	if g.spec.Label != "" {
		e.Label, _ = r.Field(g.spec.Label)
	}
	for _, f := range g.spec.Extra {
		e.Extra[f], _ = r.Field(f)
	}
	e.NumberOfElements = len(e.orders)
}

// AccumulateGroups folds rows into g and returns it.
func AccumulateGroups[R Row](g *GroupAccumulator, rows []R) *GroupAccumulator {
	for _, r := range rows {
		g.Add(r)
	}
	return g
}

// Result returns the groups folded so far.
func (g *GroupAccumulator) Result() GroupedTotals {
	return GroupedTotals{
		Spec:    g.spec,
		Keys:    slices.Clone(g.keys),
		Entries: g.entries,
	}
}
