package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/consul/api"
	"github.com/samber/lo"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/infra"
	"github.com/fystack/trustcore/pkg/types"
)

type consulClient struct {
	consulKV infra.ConsulKV
	prefix   string
}

var _ Client = (*consulClient)(nil)

// NewConsulClient returns a registry client backed by Consul KV. Key protos
// live under <prefix>/<version>/<node_id>/<purpose>.
func NewConsulClient(consulKV infra.ConsulKV, prefix string) Client {
	return &consulClient{consulKV: consulKV, prefix: prefix}
}

func (c *consulClient) GetCryptoKeyForNode(
	ctx context.Context,
	nodeID types.NodeID,
	purpose types.KeyPurpose,
	version types.RegistryVersion,
) (*types.PublicKeyProto, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)
	pair, _, err := c.consulKV.Get(c.composeKey(nodeID, purpose, version), opts)
	if err != nil {
		return nil, &errors.TransientError{Op: "registry get", Err: err}
	}
	if pair == nil {
		// Absence is normal: the registry may not have this version yet.
		return nil, nil
	}

	proto := &types.PublicKeyProto{}
	if err := json.Unmarshal(pair.Value, proto); err != nil {
		return nil, fmt.Errorf("failed to unmarshal public key proto: %w", err)
	}

	return proto, nil
}

func (c *consulClient) LatestVersion(ctx context.Context) (types.RegistryVersion, error) {
	opts := (&api.QueryOptions{}).WithContext(ctx)
	pairs, _, err := c.consulKV.List(c.prefix+"/", opts)
	if err != nil {
		return 0, &errors.TransientError{Op: "registry list", Err: err}
	}

	versions := lo.FilterMap(pairs, func(pair *api.KVPair, _ int) (uint64, bool) {
		rest := strings.TrimPrefix(pair.Key, c.prefix+"/")
		seg, _, found := strings.Cut(rest, "/")
		if !found {
			return 0, false
		}
		v, err := strconv.ParseUint(seg, 10, 64)
		return v, err == nil
	})
	if len(versions) == 0 {
		return 0, nil
	}
	return types.RegistryVersion(lo.Max(versions)), nil
}

func (c *consulClient) composeKey(nodeID types.NodeID, purpose types.KeyPurpose, version types.RegistryVersion) string {
	return fmt.Sprintf("%s/%d/%s/%s", c.prefix, version, nodeID, purpose)
}
