// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package filter

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/ast"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/eval"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/metrics"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/optimize"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/parser"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/topic"
)

// Filter is the per-reader/per-writer live object produced by Create (spec
// §4.6). InstanceID tags every instance for audit correlation
// (SPEC_FULL.md §3) and is assigned once, at successful
// creation, never reused across a free-and-recreate in Update.
type Filter struct {
	InstanceID ulid.ULID
	DomainID   uint32
	Kind       Kind

	// Expression variant.
	expression string
	params     []ParamBinding
	tree       *ast.Tree
	root       ast.NodeIndex
	container  *ast.Container
	reduced    topic.Descriptor

	// Function variant.
	function FunctionCallback
}

// Create builds a Filter from desc and topicDesc. On any failure it
// returns a nil Filter and an oops-coded error; the original object is
// never exposed to the caller half-built (spec §7: "create failure means
// the filter was not installed"), unlike the C implementation's own
// dds_filter_create, which briefly assigns *out on the expression-build
// success path before the later keyset-derivation step could still fail —
// here nothing is returned until every step, including keyset derivation,
// has succeeded.
func Create(domainID uint32, desc Description, topicDesc topic.Descriptor, entropy EntropyFunc) (*Filter, error) {
	switch desc.Kind {
	case KindFunction:
		return createFunctionFilter(domainID, desc, entropy)
	case KindExpression:
		return createExpressionFilter(domainID, desc, topicDesc, entropy)
	default:
		return nil, oops.Code("BAD_PARAMETER").Errorf("filter: unknown description kind %v", desc.Kind)
	}
}

func createFunctionFilter(domainID uint32, desc Description, entropy EntropyFunc) (*Filter, error) {
	if err := validateFunctionCallback(desc.Function); err != nil {
		return nil, oops.Code("BAD_PARAMETER").Wrap(err)
	}
	id, err := entropy()
	if err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}
	return &Filter{
		InstanceID: id,
		DomainID:   domainID,
		Kind:       KindFunction,
		function:   desc.Function,
	}, nil
}

func validateFunctionCallback(cb FunctionCallback) error {
	switch cb.Mode {
	case ModeSampleInfoArg:
		if cb.SampleInfoArg == nil {
			return fmt.Errorf("filter: mode SampleInfoArg requires SampleInfoArg callback")
		}
	case ModeSample:
		if cb.Sample == nil {
			return fmt.Errorf("filter: mode Sample requires Sample callback")
		}
	case ModeSampleArg:
		if cb.SampleArg == nil {
			return fmt.Errorf("filter: mode SampleArg requires SampleArg callback")
		}
	case ModeSampleSampleInfoArg:
		if cb.SampleSampleInfoArg == nil {
			return fmt.Errorf("filter: mode SampleSampleInfoArg requires SampleSampleInfoArg callback")
		}
	default:
		return fmt.Errorf("filter: unknown function mode %v", cb.Mode)
	}
	return nil
}

func createExpressionFilter(domainID uint32, desc Description, topicDesc topic.Descriptor, entropy EntropyFunc) (*Filter, error) {
	tmpl, err := Compile(desc.Expression)
	if err != nil {
		return nil, err
	}
	return CreateFromTemplate(domainID, tmpl, desc.Expression, desc, topicDesc, entropy)
}

// CompiledTemplate holds a parsed-and-optimized expression tree plus the
// parameter indices/variable names the optimizer found interned in it.
// Tree nodes address their parameter/variable slots by value (index or
// dotted name), never by a pointer into a particular Container (spec §9:
// "tree nodes store the handle, never the value"), so one CompiledTemplate
// is safe to share read-only across every Filter instance built from the
// same expression text — CreateFromTemplate only needs to build a fresh
// Container and intern the same keys to make it bindable again. This split
// exists so internal/sqlfilter/cache can cache the expensive parse+build
// half of filter creation independently of the per-instance parameter and
// topic-descriptor binding.
type CompiledTemplate struct {
	Tree         *ast.Tree
	Root         ast.NodeIndex
	ParamIndices []int
	VarNames     []string
}

// Compile parses and optimizes expression once, returning a reusable
// CompiledTemplate.
func Compile(expression string) (*CompiledTemplate, error) {
	start := time.Now()
	tr, container, err := parser.Parse([]byte(expression))
	if err != nil {
		return nil, err // parser.Parse already returns an oops-coded error.
	}

	newRoot, err := optimize.Build(tr, tr.Root(), container)
	if err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}
	metrics.RecordCompile(time.Since(start))

	return &CompiledTemplate{
		Tree:         tr,
		Root:         newRoot,
		ParamIndices: container.ParamIndices(),
		VarNames:     container.VarNames(),
	}, nil
}

// CreateFromTemplate builds a Filter from an already-compiled template,
// binding desc's params and reducing topicDesc against the template's
// surviving variable names without re-parsing or re-optimizing.
func CreateFromTemplate(domainID uint32, tmpl *CompiledTemplate, expression string, desc Description, topicDesc topic.Descriptor, entropy EntropyFunc) (*Filter, error) {
	container := ast.NewContainer(tmpl.Tree)
	for _, idx := range tmpl.ParamIndices {
		container.InternParam(idx)
	}
	if err := bindParams(container, desc.Params); err != nil {
		return nil, oops.Code("BAD_PARAMETER").Wrap(err)
	}

	container.Mode = ast.VariableMode
	for _, name := range tmpl.VarNames {
		container.InternVar(name)
	}

	// Only the fields the expression actually references need to satisfy
	// CheckSupported: topic_expr_filter_vars_apply iterates the *reduced*
	// descriptor, not the full topic type, so an unsupported field the
	// expression never names must not block filter creation.
	reduced := topic.Reduce(topicDesc, tmpl.VarNames)
	if err := topic.CheckFields(reduced); err != nil {
		return nil, oops.Code("UNSUPPORTED").Wrap(err)
	}

	id, err := entropy()
	if err != nil {
		return nil, oops.Code("ERROR").Wrap(err)
	}

	return &Filter{
		InstanceID: id,
		DomainID:   domainID,
		Kind:       KindExpression,
		expression: expression,
		params:     desc.Params,
		tree:       tmpl.Tree,
		root:       tmpl.Root,
		container:  container,
		reduced:    reduced,
	}, nil
}

func bindParams(c *ast.Container, params []ParamBinding) error {
	for _, p := range params {
		if !c.BindParam(p.Index, p.Token()) {
			return fmt.Errorf("filter: parameter index %d does not appear in the expression", p.Index)
		}
	}
	return nil
}

// Reduced returns the Create-derived reduced topic descriptor: only the
// fields the optimized expression still references. Zero value for a
// function filter.
func (f *Filter) Reduced() topic.Descriptor {
	return f.reduced
}

// Update rebinds params and rebuilds the expression if desc's text matches
// the filter's current expression, or signals the caller to free and
// recreate otherwise (spec §4.6: "If the current filter's textual
// expression equals the new description's expression, re-bind parameters
// and rebuild; otherwise free-and-recreate"). It never mutates f on the
// error path beyond what rebuildExpression/Compare already guarantee.
func Update(f *Filter, desc Description, topicDesc topic.Descriptor, entropy EntropyFunc) (*Filter, bool, error) {
	if !Compare(f, desc) {
		newFilter, err := Create(f.DomainID, desc, topicDesc, entropy)
		return newFilter, true, err
	}
	switch f.Kind {
	case KindExpression:
		rebuilt, err := rebuildExpression(f, desc, topicDesc)
		return rebuilt, false, err
	case KindFunction:
		// topic_func_filter_param_rebind only ever rebinds the opaque
		// arg in place; mode and callback identity already matched for
		// Compare to have returned true, so the instance is reused as-is.
		rebound := *f
		rebound.function.Arg = desc.Function.Arg
		return &rebound, false, nil
	default:
		return nil, false, oops.Code("ERROR").Errorf("filter: unknown kind %v", f.Kind)
	}
}

func rebuildExpression(f *Filter, desc Description, topicDesc topic.Descriptor) (*Filter, error) {
	tmpl, err := Compile(f.expression)
	if err != nil {
		return nil, err
	}
	rebuilt, err := CreateFromTemplate(f.DomainID, tmpl, f.expression, desc, topicDesc, func() (ulid.ULID, error) {
		return f.InstanceID, nil
	})
	if err != nil {
		return nil, err
	}
	return rebuilt, nil
}

// Compare reports whether desc would describe the same filter as f,
// matching spec §4.6: two expression filters are equal iff their
// expression strings are byte-equal and their parameter lists are
// element-wise equal (same kind and same value); two function filters are
// equal iff their modes and callback identities are equal.
func Compare(f *Filter, desc Description) bool {
	if f.Kind != desc.Kind {
		return false
	}
	switch f.Kind {
	case KindExpression:
		return f.expression == desc.Expression && paramsEqual(f.params, desc.Params)
	case KindFunction:
		return f.function.Mode == desc.Function.Mode && callbacksEqual(f.function, desc.Function)
	default:
		return false
	}
}

func paramsEqual(a, b []ParamBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Index != b[i].Index ||
			a[i].I != b[i].I || a[i].F != b[i].F || a[i].S != b[i].S ||
			string(a[i].B) != string(b[i].B) {
			return false
		}
	}
	return true
}

func callbacksEqual(a, b FunctionCallback) bool {
	return fmt.Sprintf("%p", a.Sample) == fmt.Sprintf("%p", b.Sample) &&
		fmt.Sprintf("%p", a.SampleArg) == fmt.Sprintf("%p", b.SampleArg) &&
		fmt.Sprintf("%p", a.SampleInfoArg) == fmt.Sprintf("%p", b.SampleInfoArg) &&
		fmt.Sprintf("%p", a.SampleSampleInfoArg) == fmt.Sprintf("%p", b.SampleSampleInfoArg)
}

// ReaderAccept evaluates f against one incoming sample on the reader side
// (spec §4.6's reader_accept). For an expression filter, values must
// already be extracted in f.Reduced().Fields order; for a function filter,
// sample and info are passed straight to the callback according to its
// mode.
func (f *Filter) ReaderAccept(values []topic.FieldValue, sample Sample) (bool, error) {
	accepted, err := f.accept(values, sample)
	if err == nil {
		metrics.RecordAccept(kindLabel(f.Kind), "reader", accepted)
	}
	return accepted, err
}

// WriterAccept evaluates f against one outgoing sample on the writer side
// (spec §4.6's writer_accept). Identical to ReaderAccept except a function
// filter in ModeSampleInfoArg mode has no sample info to offer and is
// treated as accepting unconditionally, mirroring
// topic_func_filter_writer_accept's own `case DDS_TOPIC_FILTER_SAMPLEINFO_ARG: break;`.
func (f *Filter) WriterAccept(values []topic.FieldValue, sample Sample) (bool, error) {
	accepted, err := f.acceptWriter(values, sample)
	if err == nil {
		metrics.RecordAccept(kindLabel(f.Kind), "writer", accepted)
	}
	return accepted, err
}

func (f *Filter) accept(values []topic.FieldValue, sample Sample) (bool, error) {
	switch f.Kind {
	case KindExpression:
		return f.evalExpression(values)
	case KindFunction:
		return invokeFunctionReader(f.function, sample)
	default:
		return false, oops.Code("ERROR").Errorf("filter: unknown kind %v", f.Kind)
	}
}

func (f *Filter) acceptWriter(values []topic.FieldValue, sample Sample) (bool, error) {
	switch f.Kind {
	case KindExpression:
		return f.evalExpression(values)
	case KindFunction:
		return invokeFunctionWriter(f.function, sample)
	default:
		return false, oops.Code("ERROR").Errorf("filter: unknown kind %v", f.Kind)
	}
}

func kindLabel(k Kind) string {
	if k == KindFunction {
		return "function"
	}
	return "expression"
}

func (f *Filter) evalExpression(values []topic.FieldValue) (bool, error) {
	if err := topic.BindSample(f.container, f.reduced, values); err != nil {
		return false, oops.Code("ERROR").Wrap(err)
	}
	start := time.Now()
	result, err := eval.Eval(f.tree, f.root, f.container)
	metrics.RecordEval(time.Since(start))
	if err != nil {
		// accept failure rejects the sample; it is not surfaced as a
		// reader/writer-visible error per spec §7 ("accept failure ...
		// returns false — reject the sample").
		return false, nil
	}
	return result.Aff.IsNumeric() && result.Truthy(), nil
}

func invokeFunctionReader(cb FunctionCallback, sample Sample) (bool, error) {
	switch cb.Mode {
	case ModeSampleInfoArg:
		return cb.SampleInfoArg(sample.Info, cb.Arg)
	case ModeSample:
		return cb.Sample(sample)
	case ModeSampleArg:
		return cb.SampleArg(sample, cb.Arg)
	case ModeSampleSampleInfoArg:
		return cb.SampleSampleInfoArg(sample.Info, sample, cb.Arg)
	default:
		return false, fmt.Errorf("filter: unknown function mode %v", cb.Mode)
	}
}

func invokeFunctionWriter(cb FunctionCallback, sample Sample) (bool, error) {
	switch cb.Mode {
	case ModeSampleInfoArg:
		return true, nil
	case ModeSampleSampleInfoArg:
		return cb.SampleSampleInfoArg(SampleInfo{}, sample, cb.Arg)
	case ModeSample:
		return cb.Sample(sample)
	case ModeSampleArg:
		return cb.SampleArg(sample, cb.Arg)
	default:
		return false, fmt.Errorf("filter: unknown function mode %v", cb.Mode)
	}
}
