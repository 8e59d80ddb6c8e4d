package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer encrypts appraisal answers and comments at rest with
// XChaCha20-Poly1305. Every ciphertext is bound to a scope, such as the
// owning appraisal and field, so a sealed value copied to another row no
// longer opens. Without a key it passes data through unchanged.
type Sealer struct {
	key []byte
}

func New(key string) (*Sealer, error) {
	if key == "" {
		return &Sealer{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("DATA_ENCRYPTION_KEY must be %d bytes after decoding", chacha20poly1305.KeySize)
	}
	return &Sealer{key: decoded}, nil
}

func (s *Sealer) Configured() bool {
	return s != nil && len(s.key) == chacha20poly1305.KeySize
}

// Seal returns nonce||ciphertext. An empty input seals to nil.
func (s *Sealer) Seal(plain []byte, scope string) ([]byte, error) {
	if len(plain) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return plain, nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, []byte(scope)), nil
}

// Open reverses Seal. scope must match the one used to seal.
func (s *Sealer) Open(sealed []byte, scope string) ([]byte, error) {
	if len(sealed) == 0 {
		return nil, nil
	}
	if !s.Configured() {
		return sealed, nil
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	nonce, data := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, data, []byte(scope))
}

func (s *Sealer) SealString(value, scope string) ([]byte, error) {
	return s.Seal([]byte(value), scope)
}

func (s *Sealer) OpenString(sealed []byte, scope string) (string, error) {
	plain, err := s.Open(sealed, scope)
	return string(plain), err
}

// decodeKey accepts hex, standard base64 with or without padding, or the
// raw bytes.
func decodeKey(raw string) []byte {
	if len(raw) == 2*chacha20poly1305.KeySize {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding} {
		if decoded, err := enc.DecodeString(raw); err == nil && len(decoded) == chacha20poly1305.KeySize {
			return decoded
		}
	}
	return []byte(raw)
}
