// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package topic

import (
	"fmt"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/token"
)

// FieldValue is one extracted, already-decoded sample field value. Which
// member is meaningful is determined entirely by the Field's Kind; the
// filter façade is responsible for populating it from the sample's native
// representation (the equivalent of dereferencing `sample + op_offs` in the
// original).
type FieldValue struct {
	I int64
	F float64
	S string
	B []byte
}

// ToToken converts a decoded field value into the Token the evaluator
// expects for kind, replicating the DDS_EXPR_VAR_SET_REAL/
// DDS_EXPR_VAR_SET_INTEGER dispatch in topic_expr_filter_vars_apply: float
// widths become a REAL token, every supported integer width becomes an
// INTEGER token, and strings/blobs pass through directly. kind must already
// have passed CheckSupported — ToToken returns an error rather than
// silently truncating if it has not.
func ToToken(kind PrimitiveKind, v FieldValue) (token.Token, error) {
	if err := CheckSupported(kind); err != nil {
		return token.Token{}, err
	}
	switch kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindBool:
		return token.Int(v.I), nil
	case KindFloat32, KindFloat64:
		return token.Float(v.F), nil
	case KindString, KindBoundedString:
		return token.Str([]byte(v.S)), nil
	default:
		return token.Token{}, fmt.Errorf("topic: unhandled field kind %s", kind)
	}
}

// BindSample binds every field of desc into its matching variable slot in
// c, converting each via ToToken. desc is expected to already be the
// reduced descriptor produced by Reduce, so values are supplied for
// exactly the identifiers the optimized expression references — matching
// spec §4.4's "extracts each referenced field from the sample, binds it to
// its matching variable". values must contain one entry per desc.Fields,
// in the same order; a missing variable slot for a field name is not an
// error (the optimizer may have folded away a reference to it, e.g. under
// a short-circuited AND).
func BindSample(c *ast.Container, desc Descriptor, values []FieldValue) error {
	if len(values) != len(desc.Fields) {
		return fmt.Errorf("topic: expected %d field values, got %d", len(desc.Fields), len(values))
	}
	for i, f := range desc.Fields {
		slot := c.VarSlot(f.Name)
		if slot == nil {
			continue
		}
		tok, err := ToToken(f.Kind, values[i])
		if err != nil {
			return fmt.Errorf("topic: field %q: %w", f.Name, err)
		}
		c.BindVar(f.Name, tok)
	}
	return nil
}
