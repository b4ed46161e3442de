package csp

import (
	"crypto/ed25519"

	"go.dedis.ch/kyber/v3/pairing"
	"go.dedis.ch/kyber/v3/sign/bls"

	"github.com/fystack/trustcore/pkg/common/errors"
	"github.com/fystack/trustcore/pkg/types"
)

var blsSuite = pairing.NewSuiteBn256()

// verifyByPublicKey is the pure verification path shared by every provider.
// It needs no secret material and therefore never touches the vault bridge.
func verifyByPublicKey(pub *types.PublicKeyProto, msg, sig []byte) error {
	switch pub.Algorithm {
	case types.AlgorithmEd25519, types.AlgorithmTLSEd25519:
		if len(pub.KeyValue) != ed25519.PublicKeySize {
			return &errors.MalformedKeyError{Algorithm: pub.Algorithm, Reason: "wrong public key length"}
		}
		if !ed25519.Verify(ed25519.PublicKey(pub.KeyValue), msg, sig) {
			return &errors.SignatureVerificationError{Reason: "ed25519 signature does not verify"}
		}
		return nil

	case types.AlgorithmMultiBls, types.AlgorithmThresBls:
		point := blsSuite.G2().Point()
		if err := point.UnmarshalBinary(pub.KeyValue); err != nil {
			return &errors.MalformedKeyError{Algorithm: pub.Algorithm, Reason: err.Error()}
		}
		if err := bls.Verify(blsSuite, point, msg, sig); err != nil {
			return &errors.SignatureVerificationError{Reason: err.Error()}
		}
		return nil

	default:
		return &errors.MalformedKeyError{Algorithm: pub.Algorithm, Reason: "unsupported algorithm"}
	}
}

// verifyThreshold checks a combined threshold signature against the constant
// term of the epoch's public polynomial.
func verifyThreshold(data *types.ThresholdSigData, msg, sig []byte) error {
	if data.Algorithm != types.AlgorithmThresBls {
		return &errors.MalformedKeyError{Algorithm: data.Algorithm, Reason: "unsupported threshold algorithm"}
	}

	pointLen := blsSuite.G2().PointLen()
	if len(data.PublicCoefficients) < pointLen {
		return &errors.MalformedKeyError{Algorithm: data.Algorithm, Reason: "public coefficients too short"}
	}

	// The aggregate public key is the first coefficient.
	point := blsSuite.G2().Point()
	if err := point.UnmarshalBinary(data.PublicCoefficients[:pointLen]); err != nil {
		return &errors.MalformedKeyError{Algorithm: data.Algorithm, Reason: err.Error()}
	}
	if err := bls.Verify(blsSuite, point, msg, sig); err != nil {
		return &errors.SignatureVerificationError{Reason: err.Error()}
	}
	return nil
}
