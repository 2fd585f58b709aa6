// Package sessionctx implements C8 (spec.md §4.8... see §3 "Session"):
// the ephemeral per-request record created at authentication and
// destroyed when the request completes — correlation id, authenticated
// DID, cached DID hash, and the limits snapshot relevant to the
// request. Unlike the teacher's session package (a long-lived
// handshake-derived crypto session), this is a short-lived request
// context, generated with google/uuid the way the rest of this module
// mints ids.
package sessionctx

import (
	"github.com/google/uuid"

	"github.com/sage-x-project/didmediator/didhash"
	"github.com/sage-x-project/didmediator/mailbox"
)

// Session is the per-request authenticated identity, correlation id,
// and limits snapshot (spec.md §3).
type Session struct {
	SessionID string
	DID       string
	DIDHash   string
	Limits    mailbox.Limits
}

// New creates a Session for an authenticated did, with a fresh
// correlation id and the given limits snapshot.
func New(did string, limits mailbox.Limits) Session {
	return Session{
		SessionID: uuid.NewString(),
		DID:       did,
		DIDHash:   didhash.Of(did),
		Limits:    limits,
	}
}
