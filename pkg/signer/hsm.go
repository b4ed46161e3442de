package signer

import (
	"fmt"
	"sync"

	"github.com/fystack/trustcore/pkg/logger"
)

// Device is the hardware security module utility surface the HSM signer
// drives. Implementations wrap whatever vendor tooling attaches the physical
// token.
type Device interface {
	// NotifyOperator surfaces a message to the human operating the HSM.
	NotifyOperator(message string)
	Attach() error
	Detach() error
	ReadPublicKey() ([]byte, error)
	Sign(msg []byte) ([]byte, error)
}

// HSM signs with a key held on a hardware security module. Each operation
// attaches the device, runs, and detaches again; the detach runs on every
// exit path, so a failed read or sign never leaves the shared device
// attached.
type HSM struct {
	device Device
	// attach/detach is a mutual exclusion resource: one outstanding attach
	// at a time, even with concurrent signing requests.
	mu sync.Mutex
}

var _ Signer = (*HSM)(nil)

func NewHSM(device Device) *HSM {
	return &HSM{device: device}
}

// withAttached runs fn with the device attached, serializing against other
// operations on the same signer.
func (h *HSM) withAttached(note string, fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.device.NotifyOperator(note)
	h.device.NotifyOperator("Attaching HSM.")
	if err := h.device.Attach(); err != nil {
		return fmt.Errorf("attach HSM: %w", err)
	}
	defer func() {
		if err := h.device.Detach(); err != nil {
			logger.Error("Failed to detach HSM", err)
		}
	}()

	return fn()
}

func (h *HSM) Get() (*Bundle, error) {
	var pubKey []byte
	err := h.withAttached("Starting node registration.", func() error {
		var err error
		pubKey, err = h.device.ReadPublicKey()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read HSM public key: %w", err)
	}

	sign := func(msg []byte) ([]byte, error) {
		var sig []byte
		err := h.withAttached("Signing request.", func() error {
			var err error
			sig, err = h.device.Sign(msg)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("sign with HSM: %w", err)
		}
		return sig, nil
	}

	return &Bundle{PublicKey: pubKey, Sign: sign}, nil
}
