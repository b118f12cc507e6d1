package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"golang.org/x/crypto/argon2"
)

var ErrEmptySeed = errors.New("task key seed must not be empty")

// maxDerivationRounds bounds the retry when a derived scalar falls outside the curve order.
const maxDerivationRounds = 16

// DeriveTaskKey creates a deterministic secp256k1 task key from seed using the
// Argon2id KDF. The same seed always yields the same key, so a client can
// decrypt outputs of tasks it submitted before a restart.
//
// Parameters: time=1, memory=64*1024, threads=4, keyLen=32
func DeriveTaskKey(seed []byte) (*ecdsa.PrivateKey, error) {
	if len(seed) == 0 {
		return nil, ErrEmptySeed
	}

	for round := byte(0); round < maxDerivationRounds; round++ {
		salt := append([]byte("SECRET-DNS-TASK-KEY-"), round)
		key := argon2.IDKey(seed, salt, 1, 64*1024, 4, 32)

		priv, err := crypto.ToECDSA(key)
		if err == nil {
			return priv, nil
		}
	}
	return nil, errors.New("could not derive a valid task key")
}

// GenerateTaskKey returns a fresh random secp256k1 task key.
func GenerateTaskKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// EncryptForKey encrypts data to a secp256k1 public key with ECIES.
func EncryptForKey(pub *ecdsa.PublicKey, data []byte) ([]byte, error) {
	ciphertext, err := ecies.Encrypt(rand.Reader, ecies.ImportECDSAPublic(pub), data, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	return ciphertext, nil
}

// DecryptWithKey decrypts ECIES ciphertext produced by EncryptForKey.
func DecryptWithKey(priv *ecdsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	plaintext, err := ecies.ImportECDSA(priv).Decrypt(ciphertext, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

// MarshalPublicKey returns the uncompressed 65-byte encoding of pub.
func MarshalPublicKey(pub *ecdsa.PublicKey) []byte {
	return crypto.FromECDSAPub(pub)
}

// UnmarshalPublicKey parses a public key produced by MarshalPublicKey.
func UnmarshalPublicKey(data []byte) (*ecdsa.PublicKey, error) {
	pub, err := crypto.UnmarshalPubkey(data)
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return pub, nil
}
