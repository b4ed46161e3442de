package crypto

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/trustcore/pkg/types"
)

func TestLockableStore_ViewSeesUpdate(t *testing.T) {
	lockable := NewLockableThresholdSigDataStore()

	lockable.Update(func(w WriteAccess) {
		w.Insert("subnet-a", 7, sigData("epoch7"))
	})

	lockable.View(func(r ReadAccess) {
		got, ok := r.Get("subnet-a", 7)
		require.True(t, ok)
		assert.Equal(t, []byte("epoch7"), got.PublicCoefficients)
		assert.Equal(t, 1, r.Size())
	})
}

func TestLockableStore_ConcurrentReadersAndWriters(t *testing.T) {
	lockable := NewLockableThresholdSigDataStore()
	lockable.Update(func(w WriteAccess) {
		w.Insert("subnet-a", 1, sigData("seed"))
	})

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers * 2)

	for i := 0; i < workers; i++ {
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				lockable.View(func(r ReadAccess) {
					// the seed entry may be evicted by writers, the read
					// itself must stay race-free
					r.Get("subnet-a", 1)
					r.Size()
				})
			}
		}(i)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				version := types.RegistryVersion(n*1000 + j)
				lockable.Update(func(w WriteAccess) {
					w.Insert("subnet-b", version, sigData("concurrent"))
				})
			}
		}(i)
	}

	wg.Wait()

	lockable.View(func(r ReadAccess) {
		assert.LessOrEqual(t, r.Size(), ThresholdSigDataStoreCapacity)
	})
}
