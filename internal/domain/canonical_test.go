package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{
		"zebra": int64(1),
		"apple": "x",
		"mango": true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"apple":"x","mango":true,"zebra":1}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("a < b & c > d")
	require.NoError(t, err)
	assert.Equal(t, `"a < b & c > d"`, string(data))
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	assert.Error(t, err)
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonical_NestedDeterminism(t *testing.T) {
	v := map[string]any{
		"items": []any{
			map[string]any{"b": int64(2), "a": int64(1)},
		},
		"count": int64(1),
	}

	first, err := MarshalCanonical(v)
	require.NoError(t, err)
	second, err := MarshalCanonical(v)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, `{"count":1,"items":[{"a":1,"b":2}]}`, string(first))
}
