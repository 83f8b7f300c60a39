package crypto

// PayloadCipher encrypts completed-session payloads before they are
// written to the offline queue and decrypts them on the receiving side.
// Implementations must use an authenticated AEAD mode; a failure to
// encrypt blocks the operation entirely rather than storing plaintext.
type PayloadCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// PINHasher hashes fallback PINs for storage and verifies submitted
// PINs against stored hashes.
type PINHasher interface {
	Hash(pin string) (string, error)
	Compare(hash, pin string) error
}
