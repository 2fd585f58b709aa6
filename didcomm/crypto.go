package didcomm

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/hpke"
)

// KeyType identifies the algorithm family of a key used by this package.
type KeyType int

const (
	KeyTypeX25519 KeyType = iota
	KeyTypeEd25519
)

// PublicKey is a recipient or sender key-agreement (or signing) key,
// looked up by the caller from C2 (DID resolver) or C1 (secret store)
// and handed in; this package never resolves DIDs or reads secrets
// itself.
type PublicKey struct {
	KID  string
	Type KeyType
	Raw  []byte
}

// PrivateKey mirrors PublicKey for the local party's key material.
type PrivateKey struct {
	KID  string
	Type KeyType
	Raw  []byte
}

var suite = hpke.NewSuite(hpke.KEM_X25519_HKDF_SHA256, hpke.KDF_HKDF_SHA256, hpke.AEAD_ChaCha20Poly1305)

// x25519PublicKey returns the raw X25519 public key bytes for pk,
// converting from Ed25519 via birational point mapping when necessary
// (grounded on crypto/keys/x25519.go's convertEd25519PubToX25519).
func x25519PublicKey(pk *PublicKey) ([]byte, error) {
	switch pk.Type {
	case KeyTypeX25519:
		return pk.Raw, nil
	case KeyTypeEd25519:
		return convertEd25519PubToX25519(pk.Raw)
	default:
		return nil, fmt.Errorf("didcomm: unsupported public key type")
	}
}

func x25519PrivateKey(sk *PrivateKey) ([]byte, error) {
	switch sk.Type {
	case KeyTypeX25519:
		return sk.Raw, nil
	case KeyTypeEd25519:
		return convertEd25519PrivToX25519(sk.Raw)
	default:
		return nil, fmt.Errorf("didcomm: unsupported private key type")
	}
}

// convertEd25519PubToX25519 maps an Ed25519 public key onto its
// Montgomery-form X25519 public key using the birational map between
// edwards25519 and curve25519.
func convertEd25519PubToX25519(edPub []byte) ([]byte, error) {
	if len(edPub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("didcomm: invalid ed25519 public key length")
	}
	p, err := new(edwards25519.Point).SetBytes(edPub)
	if err != nil {
		return nil, fmt.Errorf("didcomm: decode ed25519 point: %w", err)
	}
	return p.BytesMontgomery(), nil
}

// convertEd25519PrivToX25519 maps an Ed25519 private key (seed||pub, 64
// bytes) to its X25519 scalar by hashing the seed with SHA-512 and
// clamping, per RFC 8032/7748.
func convertEd25519PrivToX25519(edPriv []byte) ([]byte, error) {
	if len(edPriv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("didcomm: invalid ed25519 private key length")
	}
	h := sha512.Sum512(edPriv[:ed25519.SeedSize])
	out := make([]byte, 32)
	copy(out, h[:32])
	out[0] &= 248
	out[31] &= 127
	out[31] |= 64
	return out, nil
}

// sealPayload HPKE-seals plaintext to recipientPub, returning the
// encapsulated key and ciphertext (grounded on
// HPKESealAndExportToX25519Peer in crypto/keys/x25519.go, adapted to
// seal the message itself rather than exporting a shared secret).
func sealPayload(plaintext []byte, recipientPub *PublicKey, aad []byte) (enc, ciphertext []byte, err error) {
	rawPub, err := x25519PublicKey(recipientPub)
	if err != nil {
		return nil, nil, err
	}
	pub, err := suite.KEM.DeserializePublicKey(rawPub)
	if err != nil {
		return nil, nil, fmt.Errorf("didcomm: deserialize recipient key: %w", err)
	}
	sender, err := suite.NewSender(pub, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("didcomm: new hpke sender: %w", err)
	}
	enc, sealer, err := sender.Setup(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("didcomm: hpke setup: %w", err)
	}
	ct, err := sealer.Seal(plaintext, aad)
	if err != nil {
		return nil, nil, fmt.Errorf("didcomm: hpke seal: %w", err)
	}
	return enc, ct, nil
}

// openPayload reverses sealPayload using the recipient's private key.
func openPayload(enc, ciphertext []byte, recipientPriv *PrivateKey, aad []byte) ([]byte, error) {
	rawPriv, err := x25519PrivateKey(recipientPriv)
	if err != nil {
		return nil, err
	}
	priv, err := suite.KEM.DeserializePrivateKey(rawPriv)
	if err != nil {
		return nil, fmt.Errorf("didcomm: deserialize recipient private key: %w", err)
	}
	receiver, err := suite.NewReceiver(priv, nil)
	if err != nil {
		return nil, fmt.Errorf("didcomm: new hpke receiver: %w", err)
	}
	opener, err := receiver.Setup(enc)
	if err != nil {
		return nil, fmt.Errorf("didcomm: hpke receiver setup: %w", err)
	}
	pt, err := opener.Open(ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("didcomm: hpke open: %w", err)
	}
	return pt, nil
}

// signingKey returns the Ed25519 private key bytes usable with
// crypto/ed25519.Sign; only Ed25519-typed keys can sign.
func signingKey(sk *PrivateKey) (ed25519.PrivateKey, error) {
	if sk.Type != KeyTypeEd25519 {
		return nil, errors.New("didcomm: signing requires an ed25519 key")
	}
	return ed25519.PrivateKey(sk.Raw), nil
}

func verifyingKey(pk *PublicKey) (ed25519.PublicKey, error) {
	if pk.Type != KeyTypeEd25519 {
		return nil, errors.New("didcomm: verification requires an ed25519 key")
	}
	return ed25519.PublicKey(pk.Raw), nil
}

// GenerateEd25519KeyPair creates a new Ed25519 key pair suitable for
// both signing and (via conversion) key agreement, keyed by kid. Used
// by tests.
func GenerateEd25519KeyPair(kid string) (*PublicKey, *PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("didcomm: generate ed25519 key: %w", err)
	}
	return &PublicKey{KID: kid, Type: KeyTypeEd25519, Raw: pub},
		&PrivateKey{KID: kid, Type: KeyTypeEd25519, Raw: priv},
		nil
}
