// Package didcomm implements the envelope, pack, and unpack primitives
// spec.md §1 names as an out-of-scope collaborator ("the low-level
// DIDComm cryptographic primitives... assumed to be available as
// libraries"). A concrete engine is implemented here, grounded on the
// teacher's Ed25519/X25519/HPKE crypto in crypto/keys/x25519.go and the
// hpke/ package, so the rest of the module has something real to call.
package didcomm

import "encoding/json"

// Attachment is a DIDComm attachment; only the raw bytes matter to the
// mediator, which never inspects attachment content beyond routing.
type Attachment struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// UnpackedMessage is the plaintext of a DIDComm message (spec.md §3).
type UnpackedMessage struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	From         string          `json:"from,omitempty"`
	To           []string        `json:"to,omitempty"`
	ThID         string          `json:"thid,omitempty"`
	PThID        string          `json:"pthid,omitempty"`
	ExpiresTime  *int64          `json:"expires_time,omitempty"`
	CreatedTime  int64           `json:"created_time"`
	Body         json.RawMessage `json:"body,omitempty"`
	Attachments  []Attachment    `json:"attachments,omitempty"`
}

// UnpackMetadata describes how an envelope was unpacked (spec.md §3),
// passed into re-pack so the outgoing envelope can reuse the sender's
// discovered service endpoint.
type UnpackMetadata struct {
	Encrypted        bool
	Signed           bool
	Authenticated    bool
	EncryptedKeyID   string
	SignedByKeyID    string
	SenderServiceURL string
}
