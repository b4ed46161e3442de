package registry

import (
	"context"
	"sync"

	"github.com/fystack/trustcore/pkg/types"
)

type fakeKey struct {
	nodeID  types.NodeID
	purpose types.KeyPurpose
	version types.RegistryVersion
}

// FakeClient is an in-memory registry for tests and local development.
type FakeClient struct {
	mu     sync.RWMutex
	keys   map[fakeKey]*types.PublicKeyProto
	latest types.RegistryVersion
}

var _ Client = (*FakeClient)(nil)

func NewFakeClient() *FakeClient {
	return &FakeClient{keys: make(map[fakeKey]*types.PublicKeyProto)}
}

// SetCryptoKeyForNode records a key proto for (node, purpose, version).
func (f *FakeClient) SetCryptoKeyForNode(
	nodeID types.NodeID,
	purpose types.KeyPurpose,
	version types.RegistryVersion,
	proto *types.PublicKeyProto,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[fakeKey{nodeID, purpose, version}] = proto
	if version > f.latest {
		f.latest = version
	}
}

func (f *FakeClient) GetCryptoKeyForNode(
	_ context.Context,
	nodeID types.NodeID,
	purpose types.KeyPurpose,
	version types.RegistryVersion,
) (*types.PublicKeyProto, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.keys[fakeKey{nodeID, purpose, version}], nil
}

func (f *FakeClient) LatestVersion(_ context.Context) (types.RegistryVersion, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest, nil
}
