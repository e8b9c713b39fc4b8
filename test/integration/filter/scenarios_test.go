// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

//go:build integration

package filter_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/filter"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/parser"
	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/topic"
)

// descriptor builds a topic.Descriptor where every named field is a plain
// int32 key, which is all the end-to-end scenarios below need except the
// string comparison, which builds its own descriptor.
func descriptor(names ...string) topic.Descriptor {
	desc := topic.Descriptor{}
	for _, n := range names {
		desc.Fields = append(desc.Fields, topic.Field{Name: n, Kind: topic.KindInt32})
	}
	return desc
}

// valuesFor extracts one topic.FieldValue per reduced.Fields entry from
// samples, in reduced.Fields order, matching topic.BindSample's contract.
func valuesFor(reduced topic.Descriptor, samples map[string]int64) []topic.FieldValue {
	values := make([]topic.FieldValue, len(reduced.Fields))
	for i, f := range reduced.Fields {
		values[i] = topic.FieldValue{I: samples[f.Name]}
	}
	return values
}

func acceptReader(expression string, params []filter.ParamBinding, topicDesc topic.Descriptor, samples map[string]int64) bool {
	f, err := filter.Create(0, filter.Description{
		Kind:       filter.KindExpression,
		Expression: expression,
		Params:     params,
	}, topicDesc, filter.DefaultEntropy())
	Expect(err).NotTo(HaveOccurred())

	accepted, err := f.ReaderAccept(valuesFor(f.Reduced(), samples), filter.Sample{})
	Expect(err).NotTo(HaveOccurred())
	return accepted
}

var _ = Describe("Expression filter end-to-end evaluation", func() {
	It("accepts e1=0 against {e1: 0}", func() {
		got := acceptReader("e1=0", nil, descriptor("e1"), map[string]int64{"e1": 0})
		Expect(got).To(BeTrue())
	})

	It("accepts bm1=(1 << 0) against {bm1: 1}", func() {
		got := acceptReader("bm1=(1 << 0)", nil, descriptor("bm1"), map[string]int64{"bm1": 1})
		Expect(got).To(BeTrue())
	})

	It("accepts b = 'abc' against {a: 1, b: \"abc\"}", func() {
		f, err := filter.Create(0, filter.Description{
			Kind:       filter.KindExpression,
			Expression: "b = 'abc'",
		}, topic.Descriptor{Fields: []topic.Field{
			{Name: "a", Kind: topic.KindInt32},
			{Name: "b", Kind: topic.KindString},
		}}, filter.DefaultEntropy())
		Expect(err).NotTo(HaveOccurred())

		values := make([]topic.FieldValue, len(f.Reduced().Fields))
		for i, rf := range f.Reduced().Fields {
			if rf.Name == "b" {
				values[i] = topic.FieldValue{S: "abc"}
			}
		}
		accepted, err := f.ReaderAccept(values, filter.Sample{})
		Expect(err).NotTo(HaveOccurred())
		Expect(accepted).To(BeTrue())
	})

	It("accepts a + b OR ?1 * c with ?1=0 against {a:1, b:0, c:0}", func() {
		got := acceptReader("a + b OR ?1 * c",
			[]filter.ParamBinding{{Index: 1, Kind: filter.ParamInteger, I: 0}},
			descriptor("a", "b", "c"),
			map[string]int64{"a": 1, "b": 0, "c": 0})
		Expect(got).To(BeTrue())
	})

	It("accepts x AND y OR z.b against {x:0, y:0, z.b:1}", func() {
		got := acceptReader("x AND y OR z.b", nil, descriptor("x", "y", "z.b"),
			map[string]int64{"x": 0, "y": 0, "z.b": 1})
		Expect(got).To(BeTrue())
	})

	It("rejects d.x AND d.z.c OR e.x against {d.x:1, d.z.c:0, e.x:0}", func() {
		got := acceptReader("d.x AND d.z.c OR e.x", nil, descriptor("d.x", "d.z.c", "e.x"),
			map[string]int64{"d.x": 1, "d.z.c": 0, "e.x": 0})
		Expect(got).To(BeFalse())
	})
})

var _ = Describe("Parser error offsets", func() {
	offsetOf := func(expression string) int {
		_, _, err := parser.Parse([]byte(expression))
		Expect(err).To(HaveOccurred())
		var parseErr *parser.ParseError
		Expect(errors.As(err, &parseErr)).To(BeTrue(), "expected a *parser.ParseError")
		return parseErr.Offset
	}

	It("reports offset 6 for a dangling positional parameter", func() {
		Expect(offsetOf("?1 + ?")).To(Equal(6))
	})

	It("reports offset 37 for an unclosed comparison inside deep parens", func() {
		Expect(offsetOf("((c == (((6 OR ((7 AND ((8 OR (g == )))))))))")).To(Equal(37))
	})

	It("reports offset 13 for a malformed operator", func() {
		Expect(offsetOf("0 AND bib -<> bob")).To(Equal(13))
	})

	It("reports offset 1 for a leading dot with no identifier", func() {
		Expect(offsetOf(".a")).To(Equal(1))
	})
})
