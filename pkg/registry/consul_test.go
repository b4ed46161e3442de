package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/types"
)

// memoryKV implements the Consul KV slice over a map.
type memoryKV struct {
	data map[string][]byte
	err  error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string][]byte)}
}

func (m *memoryKV) Put(kv *api.KVPair, _ *api.WriteOptions) (*api.WriteMeta, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.data[kv.Key] = kv.Value
	return &api.WriteMeta{}, nil
}

func (m *memoryKV) Get(key string, _ *api.QueryOptions) (*api.KVPair, *api.QueryMeta, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	value, ok := m.data[key]
	if !ok {
		return nil, &api.QueryMeta{}, nil
	}
	return &api.KVPair{Key: key, Value: value}, &api.QueryMeta{}, nil
}

func (m *memoryKV) Delete(key string, _ *api.WriteOptions) (*api.WriteMeta, error) {
	delete(m.data, key)
	return &api.WriteMeta{}, nil
}

func (m *memoryKV) List(prefix string, _ *api.QueryOptions) (api.KVPairs, *api.QueryMeta, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	var pairs api.KVPairs
	for key, value := range m.data {
		if strings.HasPrefix(key, prefix) {
			pairs = append(pairs, &api.KVPair{Key: key, Value: value})
		}
	}
	return pairs, &api.QueryMeta{}, nil
}

func putProto(t *testing.T, kv *memoryKV, key string, proto *types.PublicKeyProto) {
	t.Helper()
	value, err := json.Marshal(proto)
	require.NoError(t, err)
	kv.data[key] = value
}

func TestConsulClient_GetCryptoKeyForNode(t *testing.T) {
	kv := newMemoryKV()
	client := NewConsulClient(kv, "crypto_registry")

	proto := &types.PublicKeyProto{Algorithm: types.AlgorithmEd25519, KeyValue: []byte("node-key")}
	putProto(t, kv, "crypto_registry/3/node-1/node_signing", proto)

	got, err := client.GetCryptoKeyForNode(context.Background(), "node-1", types.KeyPurposeNodeSigning, 3)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, proto.Algorithm, got.Algorithm)
	assert.Equal(t, proto.KeyValue, got.KeyValue)

	// lookups are exact on all three dimensions; absence is (nil, nil)
	for name, lookup := range map[string]func() (*types.PublicKeyProto, error){
		"other version": func() (*types.PublicKeyProto, error) {
			return client.GetCryptoKeyForNode(context.Background(), "node-1", types.KeyPurposeNodeSigning, 4)
		},
		"other node": func() (*types.PublicKeyProto, error) {
			return client.GetCryptoKeyForNode(context.Background(), "node-2", types.KeyPurposeNodeSigning, 3)
		},
		"other purpose": func() (*types.PublicKeyProto, error) {
			return client.GetCryptoKeyForNode(context.Background(), "node-1", types.KeyPurposeCommitteeSigning, 3)
		},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := lookup()
			assert.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestConsulClient_GetCryptoKeyForNode_Malformed(t *testing.T) {
	kv := newMemoryKV()
	client := NewConsulClient(kv, "crypto_registry")
	kv.data["crypto_registry/1/node-1/node_signing"] = []byte("{broken")

	_, err := client.GetCryptoKeyForNode(context.Background(), "node-1", types.KeyPurposeNodeSigning, 1)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestConsulClient_TransportFailure(t *testing.T) {
	kv := newMemoryKV()
	kv.err = fmt.Errorf("consul unreachable")
	client := NewConsulClient(kv, "crypto_registry")

	_, err := client.GetCryptoKeyForNode(context.Background(), "node-1", types.KeyPurposeNodeSigning, 1)
	var transient *errors.TransientError
	require.ErrorAs(t, err, &transient)

	_, err = client.LatestVersion(context.Background())
	require.ErrorAs(t, err, &transient)
}

func TestConsulClient_LatestVersion(t *testing.T) {
	kv := newMemoryKV()
	client := NewConsulClient(kv, "crypto_registry")

	// empty registry has no versions
	version, err := client.LatestVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RegistryVersion(0), version)

	proto := &types.PublicKeyProto{Algorithm: types.AlgorithmEd25519, KeyValue: []byte("k")}
	putProto(t, kv, "crypto_registry/1/node-1/node_signing", proto)
	putProto(t, kv, "crypto_registry/12/node-1/node_signing", proto)
	putProto(t, kv, "crypto_registry/3/node-2/node_signing", proto)
	// non-numeric segments are skipped
	kv.data["crypto_registry/meta/owner"] = []byte("ops")

	version, err = client.LatestVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.RegistryVersion(12), version)
}
