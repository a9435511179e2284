/*
Copyright 2025 Prism Contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringColumnRoundTrip(t *testing.T) {
	values := []string{"york", "amber", "york", "moss", "amber"}
	col := NewStringColumn("region", values)
	codec := col.Codec()
	require.NotNil(t, codec)
	assert.Equal(t, TEXT, codec.DecodedType())
	assert.Equal(t, EncU8, codec.EncodingType())

	decoded := col.Data().Decode()
	require.IsType(t, &StrVec{}, decoded)
	assert.Equal(t, values, decoded.(*StrVec).Values)
}

func TestStringCodecEncode(t *testing.T) {
	col := NewStringColumn("region", []string{"b", "a", "c", "a"})
	codec := col.Codec()
	require.NotNil(t, codec)

	// dictionary is sorted, codes are positions
	for i, s := range []string{"a", "b", "c"} {
		code, err := codec.Encode(StrValue(s))
		require.NoError(t, err)
		assert.Equal(t, int64(i), code)
		assert.Equal(t, StrValue(s), codec.DecodeValue(code))
	}

	_, err := codec.Encode(StrValue("zebra"))
	assert.ErrorIs(t, err, ErrNotInDictionary)

	_, err = codec.Encode(IntValue(1))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestStringCodecOrderPreserving(t *testing.T) {
	values := []string{"pear", "apple", "quince", "apple", "fig"}
	col := NewStringColumn("fruit", values)
	codec := col.Codec()
	require.NotNil(t, codec)
	assert.True(t, codec.IsOrderPreserving())
	assert.True(t, codec.IsPositiveInteger())
	assert.False(t, codec.IsSummationPreserving())

	// sorting encoded then decoding equals decoding then sorting
	encodedView, err := col.Data().OrderPreserving()
	require.NoError(t, err)
	ix := []int{0, 1, 2, 3, 4}
	encodedView.SortIndicesAsc(ix)
	sortedViaCodes := col.Data().IndexDecode(ix).(*StrVec).Values

	assert.Equal(t, []string{"apple", "apple", "fig", "pear", "quince"}, sortedViaCodes)
	// equal keys keep original relative order: row 1 before row 3
	assert.Equal(t, []int{1, 3, 4, 0, 2}, ix)
}
