package crypto

import (
	"sync"

	"github.com/fystack/trustcore/pkg/types"
)

// LockableThresholdSigDataStore serializes access to a ThresholdSigDataStore
// behind a reader/writer lock. Every facade handle in the process shares one
// instance.
//
// The scoped View/Update API follows the transaction style of the key-value
// store: the lock is held for exactly the duration of the callback and
// released on every exit path, including panics.
type LockableThresholdSigDataStore struct {
	mu    sync.RWMutex
	store *ThresholdSigDataStore
}

// NewLockableThresholdSigDataStore creates a store with no cached epochs.
func NewLockableThresholdSigDataStore() *LockableThresholdSigDataStore {
	return &LockableThresholdSigDataStore{store: newThresholdSigDataStore()}
}

// ReadAccess is the read-side view handed out by View.
type ReadAccess interface {
	Get(dkgID types.DkgID, version types.RegistryVersion) (*types.ThresholdSigData, bool)
	Size() int
}

// WriteAccess is the write-side view handed out by Update.
type WriteAccess interface {
	ReadAccess
	Insert(dkgID types.DkgID, version types.RegistryVersion, data *types.ThresholdSigData)
}

// View runs fn with shared read access. Readers do not block each other;
// verification paths use this exclusively.
func (l *LockableThresholdSigDataStore) View(fn func(ReadAccess)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(l.store)
}

// Update runs fn with exclusive write access. Only transcript ingestion
// takes this path; a pending writer blocks new readers, so writes cannot
// starve under read load.
func (l *LockableThresholdSigDataStore) Update(fn func(WriteAccess)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.store)
}
