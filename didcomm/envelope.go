package didcomm

import "encoding/json"

// Envelope is the on-the-wire JSON ciphertext (spec.md §3: "An opaque
// ciphertext string (JWE or JWS) as received on the wire" — here
// represented as a JSON object rather than a compact JWE/JWS, since the
// low-level codec is this module's own concrete substitute for the
// out-of-scope "assumed available" library named in spec.md §1).
type Envelope struct {
	// RecipientKID names the key-agreement key this envelope was sealed
	// to, so the recipient knows which secret to fetch from C1.
	RecipientKID string `json:"kid"`
	// Enc is the HPKE encapsulated key.
	Enc []byte `json:"enc"`
	// Ciphertext is the HPKE-sealed plaintext (AEAD ciphertext + tag).
	Ciphertext []byte `json:"ciphertext"`
	// SenderKID, if present, names the sender's key-agreement key and
	// marks this envelope as authcrypt rather than anoncrypt.
	SenderKID string `json:"skid,omitempty"`
	// Signature is an Ed25519 signature over Enc||Ciphertext by the
	// sender's signing key, proving possession of the sender DID's key
	// (spec.md §4.4: "proves possession of the client DID's
	// key-agreement key" — modeled here as the same Ed25519 key backing
	// both key agreement and signing, matching did:peer/did:key
	// convention).
	Signature []byte `json:"sig,omitempty"`
}

// Marshal serializes the envelope to the wire format.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEnvelope parses raw wire bytes into an Envelope (spec.md §4.6 step 1).
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
