// Package cardcrypto encrypts card numbers for storage.
//
// Encryption is AES-CBC with PKCS#7 padding and a fixed IV, so equal numbers
// produce equal ciphertexts. That determinism is what allows uniqueness checks
// and lookups on the encrypted column. It also reveals which rows share a
// number to anyone who can read the table; it is an at-rest envelope only.
package cardcrypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"

	"bankcards/internal/core/domain"
)

const (
	// MaskPrefix precedes the last four digits in a masked number
	MaskPrefix = "**** **** **** "
	// MaskFallback is shown when a stored number cannot be decrypted
	MaskFallback = "**** **** **** ****"
)

// DefaultIV is 0x00..0x0F
var DefaultIV = []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

var (
	ErrInvalidKey      = errors.New("encryption key must decode to 16 or 32 bytes")
	ErrInvalidIV       = errors.New("initialization vector must be 16 bytes")
	ErrMalformedCipher = errors.New("malformed ciphertext")
	ErrInvalidPadding  = errors.New("invalid padding")
	ErrEmptyCardNumber = errors.New("card number is empty")
)

// Codec is safe for concurrent use. Block ciphers are built per call.
type Codec struct {
	key []byte
	iv  []byte
}

// NewCodec creates a codec from a base64 key and a raw 16-byte IV
func NewCodec(keyBase64 string, iv []byte) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(key) != 16 && len(key) != 32 {
		return nil, ErrInvalidKey
	}
	if len(iv) != aes.BlockSize {
		return nil, ErrInvalidIV
	}

	return &Codec{
		key: key,
		iv:  bytes.Clone(iv),
	}, nil
}

// Encrypt returns base64(AES-CBC(pkcs7(plaintext)))
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", domain.CryptoError("error encrypting card number", ErrEmptyCardNumber)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", domain.CryptoError("error encrypting card number", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, c.iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", domain.CryptoError("error decrypting card number", fmt.Errorf("%w: %v", ErrMalformedCipher, err))
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", domain.CryptoError("error decrypting card number", ErrMalformedCipher)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", domain.CryptoError("error decrypting card number", err)
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, c.iv).CryptBlocks(out, raw)

	plain, err := unpad(out, aes.BlockSize)
	if err != nil {
		return "", domain.CryptoError("error decrypting card number", err)
	}
	return string(plain), nil
}

// Mask decrypts ciphertext and returns the display form. Never fails.
func (c *Codec) Mask(ciphertext string) string {
	plain, err := c.Decrypt(ciphertext)
	if err != nil {
		return MaskFallback
	}
	return MaskNumber(plain)
}

// MaskNumber masks a plaintext card number down to its last four digits
func MaskNumber(number string) string {
	if len(number) < 4 {
		return MaskFallback
	}
	return MaskPrefix + number[len(number)-4:]
}

func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(bytes.Clone(data), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
