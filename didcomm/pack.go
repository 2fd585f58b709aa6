package didcomm

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
)

// Pack encrypts msg to recipientPub and returns the wire envelope bytes
// (spec.md §4.6 step 5 / §4.4 "Pack"). When senderPriv is non-nil the
// envelope is authcrypt: Enc||Ciphertext is signed with the sender's
// key so the recipient can verify authenticity on unpack. A nil
// senderPriv produces anoncrypt.
func Pack(msg *UnpackedMessage, senderPriv *PrivateKey, recipientPub *PublicKey) ([]byte, error) {
	plaintext, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("didcomm: marshal message: %w", err)
	}

	enc, ciphertext, err := sealPayload(plaintext, recipientPub, nil)
	if err != nil {
		return nil, fmt.Errorf("didcomm: pack: %w", err)
	}

	env := &Envelope{
		RecipientKID: recipientPub.KID,
		Enc:          enc,
		Ciphertext:   ciphertext,
	}

	if senderPriv != nil {
		signer, err := signingKey(senderPriv)
		if err != nil {
			return nil, fmt.Errorf("didcomm: pack: %w", err)
		}
		env.SenderKID = senderPriv.KID
		env.Signature = signer.Sign(nil, signingInput(enc, ciphertext), nil)
	}

	return env.Marshal()
}

// Unpack decrypts raw envelope bytes with recipientPriv. senderPub, when
// non-nil, verifies an authcrypt signature and sets
// UnpackMetadata.Authenticated on success; a failed verification is a
// hard UnpackError, not a silent downgrade to unauthenticated.
func Unpack(raw []byte, recipientPriv *PrivateKey, senderPub *PublicKey) (*UnpackedMessage, *UnpackMetadata, error) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("didcomm: unpack: parse envelope: %w", err)
	}

	meta := &UnpackMetadata{
		Encrypted:      true,
		EncryptedKeyID: env.RecipientKID,
	}

	if len(env.Signature) > 0 {
		meta.Signed = true
		meta.SignedByKeyID = env.SenderKID
		if senderPub == nil {
			return nil, nil, fmt.Errorf("didcomm: unpack: signed envelope but no sender key supplied for verification")
		}
		verifier, err := verifyingKey(senderPub)
		if err != nil {
			return nil, nil, fmt.Errorf("didcomm: unpack: %w", err)
		}
		if !ed25519.Verify(verifier, signingInput(env.Enc, env.Ciphertext), env.Signature) {
			return nil, nil, fmt.Errorf("didcomm: unpack: signature verification failed")
		}
		meta.Authenticated = true
	}

	plaintext, err := openPayload(env.Enc, env.Ciphertext, recipientPriv, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("didcomm: unpack: %w", err)
	}

	var msg UnpackedMessage
	if err := json.Unmarshal(plaintext, &msg); err != nil {
		return nil, nil, fmt.Errorf("didcomm: unpack: decode plaintext: %w", err)
	}

	return &msg, meta, nil
}

func signingInput(enc, ciphertext []byte) []byte {
	buf := make([]byte, 0, len(enc)+len(ciphertext))
	buf = append(buf, enc...)
	buf = append(buf, ciphertext...)
	return buf
}

