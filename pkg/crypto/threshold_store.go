package crypto

import (
	"github.com/fystack/trustcore/pkg/types"
)

// ThresholdSigDataStoreCapacity bounds the number of DKG epochs whose
// verification material is kept in memory. Verification traffic skews toward
// the most recently completed epochs, so a small window suffices.
const ThresholdSigDataStoreCapacity = 9

type storeKey struct {
	dkgID   types.DkgID
	version types.RegistryVersion
}

// ThresholdSigDataStore caches the public verification material of completed
// DKG epochs, keyed by (subject, registry version).
//
// The store is not safe for concurrent use on its own; access it through
// LockableThresholdSigDataStore.
type ThresholdSigDataStore struct {
	entries map[storeKey]*types.ThresholdSigData
	// insertion order, oldest first; evicted from the front
	order []storeKey
}

func newThresholdSigDataStore() *ThresholdSigDataStore {
	return &ThresholdSigDataStore{
		entries: make(map[storeKey]*types.ThresholdSigData, ThresholdSigDataStoreCapacity),
	}
}

// Insert adds or replaces the material for (dkgID, version). When the store
// is full, the oldest-inserted entry is evicted first. Never blocks.
func (s *ThresholdSigDataStore) Insert(dkgID types.DkgID, version types.RegistryVersion, data *types.ThresholdSigData) {
	key := storeKey{dkgID: dkgID, version: version}

	if _, exists := s.entries[key]; exists {
		// Replacing an entry keeps its position in the eviction order. An
		// epoch's material does not change, so this only happens on
		// re-ingestion of the same transcript.
		s.entries[key] = data
		return
	}

	if len(s.entries) >= ThresholdSigDataStoreCapacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}

	s.entries[key] = data
	s.order = append(s.order, key)
}

// Get returns the material for (dkgID, version). Absence is a normal
// outcome: the transcript for that epoch has not been ingested yet.
func (s *ThresholdSigDataStore) Get(dkgID types.DkgID, version types.RegistryVersion) (*types.ThresholdSigData, bool) {
	data, ok := s.entries[storeKey{dkgID: dkgID, version: version}]
	return data, ok
}

// Size returns the number of cached epochs. Always <= capacity.
func (s *ThresholdSigDataStore) Size() int {
	return len(s.entries)
}
