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

func TestStableSortIndices(t *testing.T) {
	// duplicate keys at positions 0, 2 and 4
	v := NewIntVec([]int64{7, 3, 7, 1, 7})

	asc := []int{0, 1, 2, 3, 4}
	v.SortIndicesAsc(asc)
	assert.Equal(t, []int{3, 1, 0, 2, 4}, asc)

	desc := []int{0, 1, 2, 3, 4}
	v.SortIndicesDesc(desc)
	assert.Equal(t, []int{0, 2, 4, 1, 3}, desc)
}

func TestEncodedSortMatchesDecodedSort(t *testing.T) {
	values := []int64{1040, 1010, 1030, 1010, 1020}
	col := NewIntColumn("c", values, 1010, 1040)

	encodedView, err := col.Data().OrderPreserving()
	require.NoError(t, err)
	viaEncoded := []int{0, 1, 2, 3, 4}
	encodedView.SortIndicesAsc(viaEncoded)

	viaDecoded := []int{0, 1, 2, 3, 4}
	col.Data().Decode().SortIndicesAsc(viaDecoded)

	assert.Equal(t, viaDecoded, viaEncoded)
}

func TestIndexDecode(t *testing.T) {
	col := NewIntColumn("c", []int64{100, 200, 300, 400}, 100, 400)

	// gather in the order given, then decode
	out := col.Data().IndexDecode([]int{3, 1, 1})
	require.IsType(t, &IntVec{}, out)
	assert.Equal(t, []int64{400, 200, 200}, out.(*IntVec).Values)
}

func TestEncodedIntsWidening(t *testing.T) {
	col := NewIntColumn("c", []int64{5, 6, 9}, 5, 9)
	ints, codec, ok := EncodedInts(col.Data())
	require.True(t, ok)
	require.NotNil(t, codec)
	assert.Equal(t, []int64{0, 1, 4}, ints)

	_, _, ok = EncodedInts(NewIntVec([]int64{1, 2}))
	assert.False(t, ok)
}

func TestBoolVecBasics(t *testing.T) {
	v := NewBoolVec([]bool{true, false, true})
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, EncBool, v.EncodingType())
	assert.Equal(t, BoolValue(false), v.Value(1))
}
