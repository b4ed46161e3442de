// Package registry resolves the authoritative public keys recorded for each
// node at each registry version. The trust core only consumes this interface;
// populating the registry is the concern of the governance pipeline upstream.
package registry

import (
	"context"

	"github.com/fystack/trustcore/pkg/types"
)

// Client looks up crypto keys in the registry.
//
// A (nil, nil) return means the registry has no entry for the query, which is
// a normal outcome and distinct from a transport failure. Callers that need a
// typed not-found condition should go through the crypto component, which
// normalizes absence into a PublicKeyNotFoundError.
type Client interface {
	GetCryptoKeyForNode(
		ctx context.Context,
		nodeID types.NodeID,
		purpose types.KeyPurpose,
		version types.RegistryVersion,
	) (*types.PublicKeyProto, error)

	// LatestVersion returns the highest registry version the client has seen.
	LatestVersion(ctx context.Context) (types.RegistryVersion, error)
}
