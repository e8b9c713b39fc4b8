// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 the cdds-sqlfilter contributors

package filter

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-cyclonedds/cdds-sqlfilter/internal/sqlfilter/topic"
)

func fixedEntropy(id ulid.ULID) EntropyFunc {
	return func() (ulid.ULID, error) { return id, nil }
}

var testULID = ulid.MustParse("01ARZ3NDEKTSV4RRFFQ69G5FAV")

func speedDescriptor() topic.Descriptor {
	return topic.Descriptor{Fields: []topic.Field{
		{Name: "speed", Kind: topic.KindFloat64},
	}}
}

func TestCreateExpressionFilter_BindsParamsAndReducesTopic(t *testing.T) {
	desc := Description{
		Kind:       KindExpression,
		Expression: "speed > ?1",
		Params:     []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}},
	}
	f, err := Create(0, desc, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, testULID, f.InstanceID)
	assert.Len(t, f.Reduced().Fields, 1)
	assert.Equal(t, "speed", f.Reduced().Fields[0].Name)
}

func TestCreateExpressionFilter_UnboundParameterDefaultsToZero(t *testing.T) {
	// speed > ?1 with ?1 never explicitly bound: the build step defaults
	// it to integer 0, so any positive speed sample is accepted.
	desc := Description{
		Kind:       KindExpression,
		Expression: "speed > ?1",
	}
	f, err := Create(0, desc, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)

	accept, err := f.ReaderAccept([]topic.FieldValue{{F: 1.0}}, Sample{})
	require.NoError(t, err)
	assert.True(t, accept)
}

func TestCreateExpressionFilter_RejectsOutOfRangeParamIndex(t *testing.T) {
	desc := Description{
		Kind:       KindExpression,
		Expression: "speed > 1",
		Params:     []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}},
	}
	f, err := Create(0, desc, speedDescriptor(), fixedEntropy(testULID))
	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestCreateExpressionFilter_RejectsReferencedUnsupportedTopicField(t *testing.T) {
	desc := Description{Kind: KindExpression, Expression: "id > 0"}
	badTopic := topic.Descriptor{Fields: []topic.Field{{Name: "id", Kind: topic.KindUint64}}}
	f, err := Create(0, desc, badTopic, fixedEntropy(testULID))
	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestCreateExpressionFilter_AllowsUnreferencedUnsupportedTopicField(t *testing.T) {
	// The topic has a uint64 key, but the expression never names it, so
	// only the fields actually reduced-into need to be representable.
	desc := Description{Kind: KindExpression, Expression: "1 = 1"}
	badTopic := topic.Descriptor{Fields: []topic.Field{{Name: "id", Kind: topic.KindUint64}}}
	f, err := Create(0, desc, badTopic, fixedEntropy(testULID))
	assert.NoError(t, err)
	assert.NotNil(t, f)
}

func TestReaderAccept_ExpressionFilterAcceptsMatchingSample(t *testing.T) {
	desc := Description{
		Kind:       KindExpression,
		Expression: "speed > ?1",
		Params:     []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}},
	}
	f, err := Create(0, desc, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)

	accept, err := f.ReaderAccept([]topic.FieldValue{{F: 20.0}}, Sample{})
	require.NoError(t, err)
	assert.True(t, accept)

	reject, err := f.ReaderAccept([]topic.FieldValue{{F: 5.0}}, Sample{})
	require.NoError(t, err)
	assert.False(t, reject)
}

func TestWriterAccept_ExpressionFilterMatchesReaderAccept(t *testing.T) {
	desc := Description{
		Kind:       KindExpression,
		Expression: "speed > ?1",
		Params:     []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}},
	}
	f, err := Create(0, desc, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)

	accept, err := f.WriterAccept([]topic.FieldValue{{F: 20.0}}, Sample{})
	require.NoError(t, err)
	assert.True(t, accept)
}

func TestCompare_ExpressionFiltersEqualOnlyWhenTextAndParamsMatch(t *testing.T) {
	base := Description{
		Kind:       KindExpression,
		Expression: "speed > ?1",
		Params:     []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}},
	}
	f, err := Create(0, base, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)

	assert.True(t, Compare(f, base))

	diffParam := base
	diffParam.Params = []ParamBinding{{Index: 1, Kind: ParamReal, F: 11.0}}
	assert.False(t, Compare(f, diffParam))

	diffText := base
	diffText.Expression = "speed > ?1 AND speed < 100"
	assert.False(t, Compare(f, diffText))
}

func TestUpdate_SameExpressionRebindsWithoutNewInstanceID(t *testing.T) {
	base := Description{
		Kind:       KindExpression,
		Expression: "speed > ?1",
		Params:     []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}},
	}
	f, err := Create(0, base, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)

	rebound := base
	rebound.Params = []ParamBinding{{Index: 1, Kind: ParamReal, F: 50.0}}
	updated, recreated, err := Update(f, rebound, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)
	assert.False(t, recreated)
	assert.Equal(t, f.InstanceID, updated.InstanceID)

	accept, err := updated.ReaderAccept([]topic.FieldValue{{F: 60.0}}, Sample{})
	require.NoError(t, err)
	assert.True(t, accept)

	reject, err := updated.ReaderAccept([]topic.FieldValue{{F: 20.0}}, Sample{})
	require.NoError(t, err)
	assert.False(t, reject)
}

func TestUpdate_DifferentExpressionRecreates(t *testing.T) {
	base := Description{Kind: KindExpression, Expression: "speed > ?1", Params: []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}}}
	f, err := Create(0, base, speedDescriptor(), fixedEntropy(testULID))
	require.NoError(t, err)

	other := Description{Kind: KindExpression, Expression: "speed < ?1", Params: []ParamBinding{{Index: 1, Kind: ParamReal, F: 10.0}}}
	newID := ulid.MustParse("01ARZ3NDEKTSV4RRFFQ69G5FAW")
	updated, recreated, err := Update(f, other, speedDescriptor(), fixedEntropy(newID))
	require.NoError(t, err)
	assert.True(t, recreated)
	assert.Equal(t, newID, updated.InstanceID)
}

func TestCreateFunctionFilter_SampleModeInvoked(t *testing.T) {
	called := false
	desc := Description{
		Kind: KindFunction,
		Function: FunctionCallback{
			Mode: ModeSample,
			Sample: func(s Sample) (bool, error) {
				called = true
				return len(s.Data) > 0, nil
			},
		},
	}
	f, err := Create(0, desc, topic.Descriptor{}, fixedEntropy(testULID))
	require.NoError(t, err)

	accept, err := f.ReaderAccept(nil, Sample{Data: []byte("x")})
	require.NoError(t, err)
	assert.True(t, called)
	assert.True(t, accept)
}

func TestCreateFunctionFilter_RejectsModeWithoutMatchingCallback(t *testing.T) {
	desc := Description{Kind: KindFunction, Function: FunctionCallback{Mode: ModeSample}}
	f, err := Create(0, desc, topic.Descriptor{}, fixedEntropy(testULID))
	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestUpdate_FunctionFilterSameCallbackRebindsArgInPlace(t *testing.T) {
	sampleFn := func(s Sample) (bool, error) { return true, nil }
	desc := Description{Kind: KindFunction, Function: FunctionCallback{Mode: ModeSample, Sample: sampleFn, Arg: "v1"}}
	f, err := Create(0, desc, topic.Descriptor{}, fixedEntropy(testULID))
	require.NoError(t, err)

	rebind := Description{Kind: KindFunction, Function: FunctionCallback{Mode: ModeSample, Sample: sampleFn, Arg: "v2"}}
	updated, recreated, err := Update(f, rebind, topic.Descriptor{}, fixedEntropy(testULID))
	require.NoError(t, err)
	assert.False(t, recreated)
	assert.Equal(t, f.InstanceID, updated.InstanceID)
}

func TestWriterAccept_FunctionFilterSampleInfoArgModeAlwaysAccepts(t *testing.T) {
	desc := Description{
		Kind: KindFunction,
		Function: FunctionCallback{
			Mode:          ModeSampleInfoArg,
			SampleInfoArg: func(info SampleInfo, arg any) (bool, error) { return false, nil },
		},
	}
	f, err := Create(0, desc, topic.Descriptor{}, fixedEntropy(testULID))
	require.NoError(t, err)

	accept, err := f.WriterAccept(nil, Sample{})
	require.NoError(t, err)
	assert.True(t, accept)
}
