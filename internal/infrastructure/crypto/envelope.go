// Package crypto implements the vendor wire envelope: AES-256-CBC parameter
// encryption with PKCS#7 padding and MD5 request signing.
//
// Key and IV are both carved out of the shared channel secret (first 32 and
// first 16 bytes respectively), so the same plaintext always produces the
// same ciphertext. That is part of the vendor contract and must not be
// changed; interoperability depends on this exact derivation.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minzf581/IPProxy-sub000/internal/domain"
)

type Codec struct {
	appKey string
	secret string
	block  cipher.Block
	iv     []byte
}

// NewCodec builds a codec for one vendor channel. The secret must be at
// least 32 bytes (config validates this before we get here).
func NewCodec(appKey, secret string) (*Codec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("vendor secret too short: need 32 bytes, got %d", len(secret))
	}
	block, err := aes.NewCipher([]byte(secret[:32]))
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	return &Codec{
		appKey: appKey,
		secret: secret,
		block:  block,
		iv:     []byte(secret[:aes.BlockSize]),
	}, nil
}

// Encrypt serializes v to compact JSON, pads, encrypts with AES-CBC and
// base64-encodes the result.
func (c *Codec) Encrypt(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal params: %w", err)
	}

	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt into out. Malformed base64, ciphertext, padding
// or JSON all surface as domain.ErrDecryptFailure; an empty input is the
// caller's "no data" case and must not reach this function.
func (c *Codec) Decrypt(ciphertext string, out any) error {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return fmt.Errorf("%w: bad base64: %v", domain.ErrDecryptFailure, err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: ciphertext length %d not a block multiple", domain.ErrDecryptFailure, len(raw))
	}

	plain := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(plain, raw)

	plain, err = pkcs7Unpad(plain, aes.BlockSize)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecryptFailure, err)
	}

	if err := json.Unmarshal(plain, out); err != nil {
		return fmt.Errorf("%w: bad json: %v", domain.ErrDecryptFailure, err)
	}
	return nil
}

// Sign computes the envelope signature: uppercase hex MD5 over appKey,
// encrypted params, timestamp and the shared secret, concatenated in
// exactly that order. Reordering the fields breaks vendor verification.
func (c *Codec) Sign(params, timestamp string) string {
	sum := md5.Sum([]byte(c.appKey + params + timestamp + c.secret))
	return strings.ToUpper(fmt.Sprintf("%x", sum))
}

func (c *Codec) AppKey() string {
	return c.appKey
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return data[:len(data)-n], nil
}
