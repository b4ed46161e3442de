package types

import "encoding/json"

// Signable is anything that yields a canonical byte slice to sign or verify.
type Signable interface {
	// Raw returns the canonical byte-slice that is signed.
	Raw() ([]byte, error)
}

// RawMessage adapts pre-serialized content to Signable.
type RawMessage []byte

func (m RawMessage) Raw() ([]byte, error) {
	return []byte(m), nil
}

// RegistryNodeRecord is the payload a node signs when registering itself
// with the registry. The administrative signer (HSM or keyfile) authorizes
// it, the node-signing key only appears as data.
type RegistryNodeRecord struct {
	NodeID    NodeID `json:"node_id"`
	PublicKey string `json:"public_key"` // hex-encoded node signing key
	CreatedAt string `json:"created_at"`
	Signature []byte `json:"signature,omitempty"`
}

func (r *RegistryNodeRecord) Raw() ([]byte, error) {
	// omit the Signature field itself when computing the signed-over data
	cp := *r
	cp.Signature = nil
	return json.Marshal(&cp)
}

func (r *RegistryNodeRecord) Sig() []byte {
	return r.Signature
}
