package crypto

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/trustcore/pkg/types"
)

func sigData(tag string) *types.ThresholdSigData {
	return &types.ThresholdSigData{
		Algorithm:          types.AlgorithmThresBls,
		Threshold:          3,
		PublicCoefficients: []byte(tag),
	}
}

func TestThresholdSigDataStore_ReadAfterWrite(t *testing.T) {
	store := newThresholdSigDataStore()

	store.Insert("subnet-a", 1, sigData("epoch1"))

	got, ok := store.Get("subnet-a", 1)
	require.True(t, ok)
	assert.Equal(t, []byte("epoch1"), got.PublicCoefficients)

	// other versions and subjects stay absent
	_, ok = store.Get("subnet-a", 2)
	assert.False(t, ok)
	_, ok = store.Get("subnet-b", 1)
	assert.False(t, ok)
}

func TestThresholdSigDataStore_ReplaceKeepsSize(t *testing.T) {
	store := newThresholdSigDataStore()

	store.Insert("subnet-a", 1, sigData("first"))
	store.Insert("subnet-a", 1, sigData("second"))

	assert.Equal(t, 1, store.Size())
	got, ok := store.Get("subnet-a", 1)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got.PublicCoefficients)
}

func TestThresholdSigDataStore_EvictsOldestInsertion(t *testing.T) {
	store := newThresholdSigDataStore()

	for i := 1; i <= ThresholdSigDataStoreCapacity; i++ {
		store.Insert("subnet-a", types.RegistryVersion(i), sigData(fmt.Sprintf("epoch%d", i)))
	}
	assert.Equal(t, ThresholdSigDataStoreCapacity, store.Size())

	// one past capacity evicts the first insertion, nothing else
	store.Insert("subnet-a", types.RegistryVersion(ThresholdSigDataStoreCapacity+1), sigData("overflow"))

	assert.Equal(t, ThresholdSigDataStoreCapacity, store.Size())
	_, ok := store.Get("subnet-a", 1)
	assert.False(t, ok, "oldest entry should be evicted")
	for i := 2; i <= ThresholdSigDataStoreCapacity+1; i++ {
		_, ok := store.Get("subnet-a", types.RegistryVersion(i))
		assert.True(t, ok, "version %d should survive", i)
	}
}

func TestThresholdSigDataStore_EvictionOrderSurvivesReplace(t *testing.T) {
	store := newThresholdSigDataStore()

	for i := 1; i <= ThresholdSigDataStoreCapacity; i++ {
		store.Insert("subnet-a", types.RegistryVersion(i), sigData(fmt.Sprintf("epoch%d", i)))
	}

	// re-ingesting version 1 does not refresh its eviction position
	store.Insert("subnet-a", 1, sigData("epoch1-again"))
	store.Insert("subnet-a", types.RegistryVersion(ThresholdSigDataStoreCapacity+1), sigData("overflow"))

	_, ok := store.Get("subnet-a", 1)
	assert.False(t, ok)
}

func TestThresholdSigDataStore_LateEpochArrival(t *testing.T) {
	store := newThresholdSigDataStore()

	for i := 1; i <= ThresholdSigDataStoreCapacity; i++ {
		store.Insert("subnet-a", types.RegistryVersion(i), sigData(fmt.Sprintf("epoch%d", i)))
	}

	late := types.RegistryVersion(ThresholdSigDataStoreCapacity + 5)
	_, ok := store.Get("subnet-a", late)
	assert.False(t, ok, "epoch not yet ingested must be absent")

	store.Insert("subnet-a", late, sigData("late"))

	_, ok = store.Get("subnet-a", 1)
	assert.False(t, ok, "oldest epoch evicted to make room")
	got, ok := store.Get("subnet-a", late)
	require.True(t, ok)
	assert.Equal(t, []byte("late"), got.PublicCoefficients)
}

func TestThresholdSigDataStore_ManyEpochs(t *testing.T) {
	store := newThresholdSigDataStore()

	total := ThresholdSigDataStoreCapacity + 5
	for i := 1; i <= total; i++ {
		store.Insert("subnet-a", types.RegistryVersion(i), sigData(fmt.Sprintf("epoch%d", i)))
	}

	assert.Equal(t, ThresholdSigDataStoreCapacity, store.Size())
	for i := 1; i <= total-ThresholdSigDataStoreCapacity; i++ {
		_, ok := store.Get("subnet-a", types.RegistryVersion(i))
		assert.False(t, ok, "version %d should be evicted", i)
	}
	for i := total - ThresholdSigDataStoreCapacity + 1; i <= total; i++ {
		got, ok := store.Get("subnet-a", types.RegistryVersion(i))
		require.True(t, ok, "version %d should be cached", i)
		assert.Equal(t, []byte(fmt.Sprintf("epoch%d", i)), got.PublicCoefficients)
	}
}
