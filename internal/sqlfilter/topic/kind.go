// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package topic models the opaque topic-type descriptor the filter façade
// is handed at Create time: an enumerable list of keyed fields, plus the
// ability to derive a reduced descriptor retaining only the fields an
// optimized expression actually references. Grounded on
// topic_expr_filter_vars_apply and ddsi_type_dup_with_keys in dds_filter.c.
package topic

import "fmt"

// PrimitiveKind mirrors the DDS_OP_TYPE_* discriminant dds_filter.c reads
// off a topic descriptor's key-field ops array, narrowed to what a SQL
// expression evaluator can actually consume.
type PrimitiveKind int

const (
	KindUnknown PrimitiveKind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindBoundedString
	KindWString
	KindWChar
	KindOctetSequence
)

func (k PrimitiveKind) String() string {
	switch k {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint8:
		return "uint8"
	case KindUint16:
		return "uint16"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBoundedString:
		return "bounded-string"
	case KindWString:
		return "wstring"
	case KindWChar:
		return "wchar"
	case KindOctetSequence:
		return "octet-sequence"
	default:
		return "unknown"
	}
}

// unsupportedKinds are rejected at Create time with UNSUPPORTED, not at
// eval time, matching topic_expr_filter_vars_apply's hard asserts: 64-bit
// unsigned has no representation the evaluator's affinity lattice can hold
// without silent truncation (the original's own FIXME — "doesn't support
// 64 bit unsigned, since sql expression evaluator have nothing to handle
// that type"), wide strings/chars are explicitly commented out in the
// original dispatch, and an octet sequence has no declared length the
// filter can bound without risking an unbounded copy.
var unsupportedKinds = map[PrimitiveKind]bool{
	KindUint64:        true,
	KindWString:       true,
	KindWChar:         true,
	KindOctetSequence: true,
}

// CheckSupported returns an error naming k if k may not be referenced by a
// content filter expression.
func CheckSupported(k PrimitiveKind) error {
	if unsupportedKinds[k] {
		return fmt.Errorf("topic: field kind %s is not supported in filter expressions", k)
	}
	return nil
}
