// Package signer provides the administrative signing identity used to
// authenticate outgoing registration and governance requests. It is
// independent of the node's main identity key: the node key lives in the
// secret key store, while this identity typically lives on an operator's
// HSM, or in a local keyfile during tests.
package signer

// Bundle carries the public key and the signing operation of an
// administrative identity. It is intended to be handed to the message-sending
// caller.
type Bundle struct {
	PublicKey []byte
	Sign      func(msg []byte) ([]byte, error)
}

// Signer produces a signing bundle.
type Signer interface {
	Get() (*Bundle, error)
}
