package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// FieldCipher encrypts individual field values with AES-256-CBC. The wire
// form is "ivhex:cipherhex" so values remain printable in SQL and logs
// tooling.
type FieldCipher struct {
	key [32]byte
}

// NewFieldCipher derives the cipher key from the configured secret
func NewFieldCipher(secret string) (*FieldCipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret is required")
	}
	return &FieldCipher{key: sha256.Sum256([]byte(secret))}, nil
}

// Encrypt encrypts plaintext to "ivhex:cipherhex"
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Values that do not look encrypted are returned
// unchanged so columns written before encryption was enabled keep working.
func (c *FieldCipher) Decrypt(value string) (string, error) {
	ivHex, cipherHex, ok := strings.Cut(value, ":")
	if !ok {
		return value, nil
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != aes.BlockSize {
		return value, nil
	}
	ciphertext, err := hex.DecodeString(cipherHex)
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return value, nil
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return "", err
	}

	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	unpadded, err := pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(unpadded), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	pad := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+pad)
	copy(out, b)
	for i := len(b); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(b))
	}
	pad := int(b[len(b)-1])
	if pad == 0 || pad > blockSize || pad > len(b) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, v := range b[len(b)-pad:] {
		if int(v) != pad {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return b[:len(b)-pad], nil
}
