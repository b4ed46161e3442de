package signer

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// UtilityDevice drives an HSM through an external vendor tool. The tool is
// invoked once per operation with a subcommand (attach, detach, pubkey,
// sign); sign receives the message on stdin and must print the signature as
// hex on stdout, pubkey prints the public key as hex.
type UtilityDevice struct {
	// Tool is the path to the vendor utility binary.
	Tool string
	// ExtraArgs are prepended before the subcommand, for slot or PIN
	// selection flags the vendor tool needs on every call.
	ExtraArgs []string
}

var _ Device = (*UtilityDevice)(nil)

func (d *UtilityDevice) NotifyOperator(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func (d *UtilityDevice) Attach() error {
	_, err := d.run(nil, "attach")
	return err
}

func (d *UtilityDevice) Detach() error {
	_, err := d.run(nil, "detach")
	return err
}

func (d *UtilityDevice) ReadPublicKey() ([]byte, error) {
	out, err := d.run(nil, "pubkey")
	if err != nil {
		return nil, err
	}
	key, err := hex.DecodeString(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("decode public key output: %w", err)
	}
	return key, nil
}

func (d *UtilityDevice) Sign(msg []byte) ([]byte, error) {
	out, err := d.run(msg, "sign")
	if err != nil {
		return nil, err
	}
	sig, err := hex.DecodeString(strings.TrimSpace(string(out)))
	if err != nil {
		return nil, fmt.Errorf("decode signature output: %w", err)
	}
	return sig, nil
}

func (d *UtilityDevice) run(stdin []byte, subcommand string) ([]byte, error) {
	args := append(append([]string{}, d.ExtraArgs...), subcommand)
	cmd := exec.Command(d.Tool, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s %s: %w: %s", d.Tool, subcommand, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
