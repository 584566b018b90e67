package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentSetPrunesEmpty(t *testing.T) {
	a := make(Assignment)
	a.Set("jobA", "exe1", []int{2, 0, 1})
	assert.Equal(t, []int{0, 1, 2}, a.ShardsFor("jobA", "exe1"))

	a.Set("jobA", "exe1", nil)
	assert.Nil(t, a.ShardsFor("jobA", "exe1"))
	_, ok := a["jobA"]
	assert.False(t, ok, "job entry should be pruned once its last executor is cleared")
}

func TestAssignmentSetIsIndependentPerExecutor(t *testing.T) {
	a := make(Assignment)
	a.Set("jobA", "exe1", []int{0})
	a.Set("jobA", "exe2", []int{1})
	assert.Equal(t, []int{0}, a.ShardsFor("jobA", "exe1"))
	assert.Equal(t, []int{1}, a.ShardsFor("jobA", "exe2"))

	a.Set("jobA", "exe1", nil)
	assert.Nil(t, a.ShardsFor("jobA", "exe1"))
	assert.Equal(t, []int{1}, a.ShardsFor("jobA", "exe2"), "clearing one executor must not disturb another")
}

func TestEncodeDecodeShardsRoundTrip(t *testing.T) {
	cases := [][]int{nil, {}, {0}, {0, 1, 2}, {5, 3, 4}}
	for _, shards := range cases {
		encoded := EncodeShards(shards)
		decoded, err := DecodeShards(encoded)
		require.NoError(t, err)
		if len(shards) == 0 {
			assert.Empty(t, decoded)
			continue
		}
		assert.ElementsMatch(t, shards, decoded)
	}
}

func TestDecodeShardsRejectsGarbage(t *testing.T) {
	_, err := DecodeShards("0,abc,2")
	assert.Error(t, err)
}
