package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"

	"github.com/fystack/trustcore/pkg/filesystem"
)

// EncryptToAgeFile writes data to path encrypted with an age scrypt recipient.
func EncryptToAgeFile(path, passphrase string, data []byte) error {
	if err := filesystem.ValidateFilePath(path); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	outFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create encrypted file: %w", err)
	}
	defer outFile.Close()

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create scrypt recipient: %w", err)
	}

	writer, err := age.Encrypt(outFile, recipient)
	if err != nil {
		return fmt.Errorf("failed to create age encryption writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write encrypted data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize age encryption: %w", err)
	}
	return nil
}

// DecryptAgeFile reads path and decrypts it with the given passphrase.
func DecryptAgeFile(path, passphrase string) ([]byte, error) {
	if err := filesystem.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid key path: %w", err)
	}

	encrypted, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read encrypted file: %w", err)
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create scrypt identity: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(encrypted), identity)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", path, err)
	}
	plain, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read decrypted data: %w", err)
	}
	return plain, nil
}
