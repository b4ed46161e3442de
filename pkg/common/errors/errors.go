// Package errors defines the typed error taxonomy of the trust core.
//
// Every fallible operation returns one of these types (possibly wrapped with
// %w) so callers can dispatch on the condition, not on message text. The only
// condition not modeled here is the missing node-signing key at component
// construction, which is a startup abort rather than a returned error.
package errors

import (
	"errors"
	"fmt"

	"github.com/fystack/trustcore/pkg/types"
)

// New mirrors the standard library constructor for ad-hoc errors.
func New(text string) error {
	return errors.New(text)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

// PublicKeyNotFoundError reports that the registry has no key recorded for
// (node, purpose, version). This is recoverable: the registry may simply not
// have caught up to the queried version yet.
type PublicKeyNotFoundError struct {
	NodeID          types.NodeID
	KeyPurpose      types.KeyPurpose
	RegistryVersion types.RegistryVersion
}

func (e *PublicKeyNotFoundError) Error() string {
	return fmt.Sprintf(
		"public key not found in registry: node=%s purpose=%s version=%d",
		e.NodeID, e.KeyPurpose, e.RegistryVersion,
	)
}

// ThresholdSigDataNotFoundError reports that no threshold verification
// material is cached for (dkg, version). Expected while the DKG transcript
// for that epoch has not been ingested yet.
type ThresholdSigDataNotFoundError struct {
	DkgID           types.DkgID
	RegistryVersion types.RegistryVersion
}

func (e *ThresholdSigDataNotFoundError) Error() string {
	return fmt.Sprintf(
		"threshold signature data not found: dkg=%s version=%d",
		e.DkgID, e.RegistryVersion,
	)
}

// SignatureVerificationError reports an invalid signature. The signature was
// checked against the intended key material and did not verify.
type SignatureVerificationError struct {
	Reason string
}

func (e *SignatureVerificationError) Error() string {
	return "signature verification failed: " + e.Reason
}

// TransientError wraps a backend or transport failure (vault RPC, registry
// query). Retry policy belongs to the caller, not to the trust core.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure in %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MalformedKeyError reports key material that could not be parsed for the
// declared algorithm.
type MalformedKeyError struct {
	Algorithm types.AlgorithmID
	Reason    string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed %s key: %s", e.Algorithm, e.Reason)
}
