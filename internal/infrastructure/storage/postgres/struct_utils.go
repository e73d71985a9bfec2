package postgres

import (
	"fmt"
	"reflect"
	"slices"
)

// ExtractDBColumns returns the column names of T's "db" tags in field order.
// Embedded structs are walked recursively. Call it once at initialization.
//
//	cols := ExtractDBColumns[reports.SourceRow]()
//	// ["order_id", "product_id", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return extractColumnsFromType(reflect.TypeOf(zero))
}

func extractColumnsFromType(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			cols = append(cols, extractColumnsFromType(field.Type)...)
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}

// AliasedColumns renders "expr AS column" for every column, in columns order.
// Every column needs an expression and every expression a column, so a
// projection cannot drift from the struct it is scanned into.
func AliasedColumns(columns []string, exprs map[string]string) ([]string, error) {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		expr, ok := exprs[col]
		if !ok {
			return nil, fmt.Errorf("no expression for column %q", col)
		}
		out = append(out, expr+" AS "+col)
	}
	if len(exprs) != len(columns) {
		for col := range exprs {
			if !slices.Contains(columns, col) {
				return nil, fmt.Errorf("expression for unknown column %q", col)
			}
		}
	}
	return out, nil
}
