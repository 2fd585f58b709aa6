// Package secretstore implements C1 (spec.md §4.1): a process-global,
// read-mostly holder of the mediator's private keys, loaded once at
// startup from a JSON array of JWKs and served to the crypto layer by
// key id. Grounded on the teacher's crypto/storage in-memory key store
// (crypto/storage/memory.go), adapted from a generic KeyPair store to
// the JWK-backed Secret tuple spec.md §3 defines.
package secretstore

import (
	"github.com/sage-x-project/didmediator/didcomm"
)

// Secret is the (key-id, key-type, private-key-material,
// public-key-material) tuple of spec.md §3. KeyID is of the form
// "<did>#<fragment>".
type Secret struct {
	KeyID      string
	Type       didcomm.KeyType
	PrivateKey *didcomm.PrivateKey
	PublicKey  *didcomm.PublicKey
}

// DID returns the DID portion of the secret's key id (the part before
// the first '#').
func (s Secret) DID() string {
	for i, r := range s.KeyID {
		if r == '#' {
			return s.KeyID[:i]
		}
	}
	return s.KeyID
}

// jwk is the on-disk representation of one entry in mediator_secrets'
// JSON array: {"id": "<did>#<fragment>", "type": "Ed25519", "privateKeyJwk": {...}}.
type jwk struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	PrivateKeyJWK privateKeyJWK `json:"privateKeyJwk"`
}

// privateKeyJWK is an OKP JWK (RFC 8037) carrying an Ed25519 or X25519
// key pair: "x" is the public key, "d" the private scalar/seed, both
// base64url-encoded without padding.
type privateKeyJWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	D   string `json:"d"`
}
