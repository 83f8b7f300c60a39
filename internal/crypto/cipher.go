// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GramSeva Foundation

// Package crypto holds the cryptographic primitives of the edge agent:
// the AES-256-GCM payload cipher protecting queued offline transactions
// and the bcrypt hasher guarding fallback PINs.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// ErrEncryptionFailure marks a blocked operation: data that cannot be
// encrypted is never persisted or transmitted in the clear.
var ErrEncryptionFailure = errors.New("encryption failure")

// payloadCipher is the private implementation of [PayloadCipher].
type payloadCipher struct {
	key []byte

	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. kiosk vs. mobile gateway).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewPayloadCipher constructs a [PayloadCipher] whose 256-bit key is
// derived from the device secret with Argon2id, salted with a digest of
// the device ID so two devices sharing a secret still derive distinct
// keys. Parameters follow the OWASP (2024) recommendation:
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewPayloadCipher(deviceSecret, deviceID string) (PayloadCipher, error) {
	if deviceSecret == "" {
		return nil, fmt.Errorf("%w: empty device secret", ErrEncryptionFailure)
	}

	c := &payloadCipher{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}

	salt := sha256.Sum256([]byte("idverify-device:" + deviceID))
	c.key = argon2.IDKey(
		[]byte(deviceSecret),
		salt[:16],
		c.argonTime,
		c.argonMemory,
		c.argonThreads,
		c.argonKeyLen,
	)

	return c, nil
}

// Encrypt implements [PayloadCipher]. It seals plaintext with
// AES-256-GCM. A random 12-byte nonce is prepended to the ciphertext so
// that the decryption side can locate it: blob = nonce ‖ ciphertext.
func (c *payloadCipher) Encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// Decrypt implements [PayloadCipher]. It unseals a blob produced by
// [payloadCipher.Encrypt]. The blob must be at least as long as the GCM
// nonce (12 bytes). Returns the plaintext, or an error if the blob is
// too short, the key is wrong, or the ciphertext was tampered with.
func (c *payloadCipher) Decrypt(blob []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	if len(blob) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: blob shorter than nonce", ErrEncryptionFailure)
	}

	nonce, ciphertext := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailure, err)
	}

	return plaintext, nil
}
