// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

// Command sqlfilter is the operator CLI for the content-filter engine: it
// parses and explains expressions, evaluates a filter against a sample
// without a running DDS participant, prints the description JSON Schema,
// and serves the /metrics and /healthz endpoints standalone. Grounded on
// cmd/holomush's cobra subcommand layout (persistent --config flag, one
// newXCmd per subcommand, dual JSON/table output).
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/oops"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/filter"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/schema"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/topic"
)

// topicFieldDoc is one field of a CLI-supplied topic descriptor document.
type topicFieldDoc struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// topicDescriptorDoc is the JSON shape a --topic file holds: a flat list
// of keyed fields, matching topic.Descriptor's own shape one-for-one.
type topicDescriptorDoc struct {
	Fields []topicFieldDoc `json:"fields"`
}

var kindByName = map[string]topic.PrimitiveKind{
	"int8":           topic.KindInt8,
	"int16":          topic.KindInt16,
	"int32":          topic.KindInt32,
	"int64":          topic.KindInt64,
	"uint8":          topic.KindUint8,
	"uint16":         topic.KindUint16,
	"uint32":         topic.KindUint32,
	"uint64":         topic.KindUint64,
	"float32":        topic.KindFloat32,
	"float64":        topic.KindFloat64,
	"bool":           topic.KindBool,
	"string":         topic.KindString,
	"bounded-string": topic.KindBoundedString,
	"wstring":        topic.KindWString,
	"wchar":          topic.KindWChar,
	"octet-sequence": topic.KindOctetSequence,
}

// toDescriptor converts d into the topic.Descriptor the filter façade
// expects, rejecting any field whose kind name is not recognized.
func (d topicDescriptorDoc) toDescriptor() (topic.Descriptor, error) {
	desc := topic.Descriptor{Fields: make([]topic.Field, 0, len(d.Fields))}
	for _, f := range d.Fields {
		k, ok := kindByName[f.Kind]
		if !ok {
			return topic.Descriptor{}, oops.Code("BAD_PARAMETER").
				With("field", f.Name).With("kind", f.Kind).
				Errorf("sqlfilter: unrecognized field kind %q", f.Kind)
		}
		desc.Fields = append(desc.Fields, topic.Field{Name: f.Name, Kind: k})
	}
	return desc, nil
}

// loadTopicDescriptor reads and decodes a --topic JSON document from path.
func loadTopicDescriptor(path string) (topic.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return topic.Descriptor{}, oops.Code("BAD_PARAMETER").With("path", path).Wrap(err)
	}
	var doc topicDescriptorDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return topic.Descriptor{}, oops.Code("BAD_PARAMETER").With("path", path).Wrap(err)
	}
	return doc.toDescriptor()
}

// loadDescription reads and decodes a --description JSON document from
// path into a filter.Description, validating it against the description
// schema first so a malformed file is rejected with a field-level message
// instead of an opaque unmarshal error.
func loadDescription(path string) (filter.Description, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return filter.Description{}, "", oops.Code("BAD_PARAMETER").With("path", path).Wrap(err)
	}
	doc, err := schema.Decode(data)
	if err != nil {
		return filter.Description{}, "", fmt.Errorf("%s: %s", path, schema.FormatSchemaError(err))
	}
	desc, err := doc.ToDescription()
	if err != nil {
		return filter.Description{}, "", err
	}
	return desc, doc.GrammarVersion, nil
}

// fieldValuesDoc is the JSON shape a --sample file holds: a flat map from
// dotted field name to its JSON-typed value.
type fieldValuesDoc map[string]any

// bindValues extracts one topic.FieldValue per entry of reduced.Fields from
// doc, in reduced.Fields order, matching topic.BindSample's documented
// contract. A field present in reduced but absent from doc is an error;
// evaluating against an incomplete sample is a usage mistake worth failing
// loudly on rather than silently treating as zero.
func bindValues(reduced topic.Descriptor, doc fieldValuesDoc) ([]topic.FieldValue, error) {
	values := make([]topic.FieldValue, len(reduced.Fields))
	for i, f := range reduced.Fields {
		raw, ok := doc[f.Name]
		if !ok {
			return nil, oops.Code("BAD_PARAMETER").With("field", f.Name).
				Errorf("sqlfilter: sample is missing field %q", f.Name)
		}
		fv, err := toFieldValue(f.Kind, raw)
		if err != nil {
			return nil, oops.Code("BAD_PARAMETER").With("field", f.Name).Wrap(err)
		}
		values[i] = fv
	}
	return values, nil
}

func toFieldValue(kind topic.PrimitiveKind, raw any) (topic.FieldValue, error) {
	switch kind {
	case topic.KindFloat32, topic.KindFloat64:
		f, ok := raw.(float64)
		if !ok {
			return topic.FieldValue{}, fmt.Errorf("sqlfilter: expected a number, got %T", raw)
		}
		return topic.FieldValue{F: f}, nil
	case topic.KindString, topic.KindBoundedString:
		s, ok := raw.(string)
		if !ok {
			return topic.FieldValue{}, fmt.Errorf("sqlfilter: expected a string, got %T", raw)
		}
		return topic.FieldValue{S: s}, nil
	case topic.KindBool:
		switch v := raw.(type) {
		case bool:
			i := int64(0)
			if v {
				i = 1
			}
			return topic.FieldValue{I: i}, nil
		case float64:
			return topic.FieldValue{I: int64(v)}, nil
		default:
			return topic.FieldValue{}, fmt.Errorf("sqlfilter: expected a bool, got %T", raw)
		}
	default:
		n, ok := raw.(float64)
		if !ok {
			return topic.FieldValue{}, fmt.Errorf("sqlfilter: expected an integer, got %T", raw)
		}
		return topic.FieldValue{I: int64(n)}, nil
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
