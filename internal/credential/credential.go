// Package credential turns OAuth tokens into opaque sealed payloads and back.
//
// The store only ever sees the sealed bytes. A payload is
//
//	version(1) | nonce(24) | secretbox(json(oauth2.Token))
//
// sealed with NaCl secretbox under a key derived from the configured secret
// with HKDF-SHA256. Anyone holding the database but not the secret can
// neither read nor forge a token.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/oauth2"
)

const (
	MinSecretLength = 16

	version   byte = 1
	nonceSize      = 24
	keySize        = 32
)

var hkdfInfo = []byte("skill-sangam oauth token v1")

// ErrCorrupt means a payload was truncated, tampered with or sealed under a
// different secret.
var ErrCorrupt = errors.New("credential: sealed token cannot be opened")

// Sealer seals and opens tokens. It is safe for concurrent use.
type Sealer struct {
	key [keySize]byte
}

func NewSealer(secret string) (*Sealer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("credential: secret must be at least %d characters", MinSecretLength)
	}
	s := &Sealer{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, hkdfInfo)
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return nil, fmt.Errorf("credential: deriving key: %w", err)
	}
	return s, nil
}

func (s *Sealer) Seal(tok *oauth2.Token) ([]byte, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, errors.New("credential: token has no access token")
	}
	plain, err := json.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("credential: encoding token: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("credential: reading nonce: %w", err)
	}

	out := make([]byte, 0, 1+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, version)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, &s.key), nil
}

func (s *Sealer) Open(sealed []byte) (*oauth2.Token, error) {
	if len(sealed) < 1+nonceSize+secretbox.Overhead || sealed[0] != version {
		return nil, ErrCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[1:1+nonceSize])

	plain, ok := secretbox.Open(nil, sealed[1+nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrCorrupt
	}

	var tok oauth2.Token
	if err := json.Unmarshal(plain, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &tok, nil
}
