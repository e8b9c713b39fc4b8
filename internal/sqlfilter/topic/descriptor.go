// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package topic

// Field describes one keyed field of a topic's data type: its dotted
// sample-field name (matching the identifiers an expression may reference)
// and its primitive wire kind. Signed and unsigned integer widths are
// distinct Kind values, mirroring the original's DDS_OP_FLAG_SGN dispatch
// on top of a shared byte-width discriminant.
type Field struct {
	Name string
	Kind PrimitiveKind
}

// Descriptor is the filter's view of a topic's data type: an ordered list
// of keyed fields. The filter treats it as opaque beyond Reduce and field
// lookup by name, matching spec §4.4's "enumerate keyed fields" / "duplicate
// with reduced key-set" contract.
type Descriptor struct {
	Fields []Field
}

// Field returns the descriptor's field named name, or false if absent.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Reduce derives a new Descriptor retaining only the fields named in names,
// in names' order, mirroring ddsi_type_dup_with_keys: the filter façade
// calls this once per Create/Update with the optimized expression's
// surviving variable names, so only those fields need to be extracted from
// each sample thereafter.
func Reduce(desc Descriptor, names []string) Descriptor {
	out := Descriptor{Fields: make([]Field, 0, len(names))}
	for _, name := range names {
		if f, ok := desc.Field(name); ok {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

// CheckFields validates that every field in desc has a primitive kind the
// evaluator can represent, returning the first violation. The filter
// façade calls this at Create time, before any sample is ever filtered —
// matching the original's hard assert in topic_expr_filter_vars_apply,
// turned into a recoverable UNSUPPORTED error instead of a crash.
func CheckFields(desc Descriptor) error {
	for _, f := range desc.Fields {
		if err := CheckSupported(f.Kind); err != nil {
			return err
		}
	}
	return nil
}
