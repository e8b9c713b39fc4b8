// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Package schema is the JSON-facing boundary for expression-kind filter
// descriptions: a schema hosts can validate a description document
// against before it ever reaches the parser, and a bridge from the
// validated document into internal/sqlfilter/filter.Description. Grounded
// on internal/plugin/schema.go (invopop/jsonschema generation,
// santhosh-tekuri/jsonschema/v6 compiled validation, sync.Once caching).
package schema

import (
	"github.com/samber/oops"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/filter"
)

// ContentFilterDescription is the JSON wire shape of an expression-kind
// filter description (spec §4.6, §6). Function-kind descriptions carry
// Go callbacks and have no JSON representation.
type ContentFilterDescription struct {
	// Expression is the filter expression text (spec §3).
	Expression string `json:"expression" jsonschema:"required,minLength=1"`

	// GrammarVersion is the semver the expression was authored against,
	// checked by internal/sqlfilter/cache before reusing a compiled
	// plan (SPEC_FULL.md §3's Masterminds/semver wiring).
	GrammarVersion string `json:"grammar_version,omitempty" jsonschema:"pattern=^[0-9]+\\.[0-9]+\\.[0-9]+$"`

	// Params binds the expression's positional parameters (spec §6).
	Params []ParamValue `json:"params,omitempty"`
}

// ParamValue is the JSON wire shape of one filter.ParamBinding. Exactly
// one of Integer/Real/String/Blob is populated, matching Kind.
type ParamValue struct {
	Index   int     `json:"index" jsonschema:"required,minimum=1"`
	Kind    string  `json:"kind" jsonschema:"required,enum=integer,enum=real,enum=string,enum=blob"`
	Integer *int64  `json:"integer,omitempty"`
	Real    *float64 `json:"real,omitempty"`
	String  *string  `json:"string,omitempty"`
	Blob    []byte   `json:"blob,omitempty"`
}

// ToDescription converts a validated ContentFilterDescription into the
// filter.Description the façade's Create/Update accept.
func (d ContentFilterDescription) ToDescription() (filter.Description, error) {
	params := make([]filter.ParamBinding, 0, len(d.Params))
	for _, p := range d.Params {
		binding, err := p.toBinding()
		if err != nil {
			return filter.Description{}, err
		}
		params = append(params, binding)
	}
	return filter.Description{
		Kind:       filter.KindExpression,
		Expression: d.Expression,
		Params:     params,
	}, nil
}

func (p ParamValue) toBinding() (filter.ParamBinding, error) {
	b := filter.ParamBinding{Index: p.Index}
	switch p.Kind {
	case "integer":
		if p.Integer == nil {
			return b, oops.Code("BAD_PARAMETER").With("index", p.Index).Errorf("schema: param %d has kind integer but no integer value", p.Index)
		}
		b.Kind = filter.ParamInteger
		b.I = *p.Integer
	case "real":
		if p.Real == nil {
			return b, oops.Code("BAD_PARAMETER").With("index", p.Index).Errorf("schema: param %d has kind real but no real value", p.Index)
		}
		b.Kind = filter.ParamReal
		b.F = *p.Real
	case "string":
		if p.String == nil {
			return b, oops.Code("BAD_PARAMETER").With("index", p.Index).Errorf("schema: param %d has kind string but no string value", p.Index)
		}
		b.Kind = filter.ParamString
		b.S = *p.String
	case "blob":
		b.Kind = filter.ParamBlob
		b.B = p.Blob
	default:
		return b, oops.Code("BAD_PARAMETER").With("index", p.Index).With("kind", p.Kind).Errorf("schema: param %d has unknown kind %q", p.Index, p.Kind)
	}
	return b, nil
}
