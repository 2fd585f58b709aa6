// Package wire ties didcomm's low-level Pack/Unpack primitives to C1
// (secretstore) and C2 (didresolver) so callers deal in DIDs and key
// ids rather than raw key material. This is the concrete "crypto
// layer" spec.md §4.1/§4.2 describes querying during pack/unpack.
package wire

import (
	"context"
	"strings"
	"time"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/didresolver"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/secretstore"
)

// Limits bounds the crypto work a single Pack/Unpack call may perform
// (spec.md §4.6 steps 2 and 5, §9). Zero means unbounded.
type Limits struct {
	// CryptoOperationsPerMessage caps the AEAD-open plus signature-
	// verify operations Unpack performs decrypting one envelope.
	CryptoOperationsPerMessage int
	// ToKeysPerRecipientLimit caps how many key-agreement keys a
	// recipient's resolved DID document may advertise before Pack
	// refuses to use it.
	ToKeysPerRecipientLimit int
}

// Engine packs and unpacks DIDComm envelopes on behalf of a single
// local DID (the mediator), using secrets for its own keys and
// resolver for peer key material.
type Engine struct {
	secrets  secretstore.Store
	resolver *didresolver.Resolver
	limits   Limits
}

// New constructs an Engine.
func New(secrets secretstore.Store, resolver *didresolver.Resolver, limits Limits) *Engine {
	return &Engine{secrets: secrets, resolver: resolver, limits: limits}
}

func didFromKID(kid string) string {
	if i := strings.IndexByte(kid, '#'); i >= 0 {
		return kid[:i]
	}
	return kid
}

// Unpack decrypts raw using the local secret identified by
// recipientKeyID, resolving and verifying the sender's key-agreement
// key when the envelope claims to be authcrypt.
func (e *Engine) Unpack(ctx context.Context, raw []byte, recipientKeyID string) (*didcomm.UnpackedMessage, *didcomm.UnpackMetadata, error) {
	env, err := didcomm.ParseEnvelope(raw)
	if err != nil {
		return nil, nil, errs.New(errs.ParseError, "could not parse envelope", err)
	}

	recipientSecret, ok := e.secrets.Get(recipientKeyID)
	if !ok {
		return nil, nil, errs.New(errs.InternalError, "mediator key not found", nil).WithDetails("key_id", recipientKeyID)
	}

	var senderPub *didcomm.PublicKey
	var senderServiceURL string
	if env.SenderKID != "" {
		senderDID := didFromKID(env.SenderKID)
		doc, err := e.resolver.Resolve(ctx, senderDID)
		if err != nil {
			return nil, nil, errs.New(errs.UnpackError, "could not resolve sender DID", err).WithDetails("did", senderDID)
		}
		vm, ok := doc.KeyAgreementByID(env.SenderKID)
		if !ok {
			return nil, nil, errs.New(errs.UnpackError, "sender key-agreement key not found in DID document", nil).WithDetails("kid", env.SenderKID)
		}
		senderPub = vm.PublicKey
		if url, ok := doc.ServiceEndpoint(); ok {
			senderServiceURL = url
		}
	}

	if e.limits.CryptoOperationsPerMessage > 0 {
		ops := 1 // AEAD open
		if env.SenderKID != "" {
			ops++ // signature verify
		}
		if ops > e.limits.CryptoOperationsPerMessage {
			return nil, nil, errs.New(errs.UnpackError, "message exceeds crypto_operations_per_message_limit", nil)
		}
	}

	msg, meta, err := didcomm.Unpack(raw, recipientSecret.PrivateKey, senderPub)
	if err != nil {
		return nil, nil, errs.New(errs.UnpackError, "unpack failed", err)
	}
	meta.SenderServiceURL = senderServiceURL

	if msg.ExpiresTime != nil && *msg.ExpiresTime <= time.Now().Unix() {
		return nil, nil, errs.New(errs.MessageExpired, "message has expired", nil)
	}

	return msg, meta, nil
}

// Pack encrypts msg for toDID. When fromKeyID is non-empty the
// envelope is authcrypt, signed with the local secret identified by
// fromKeyID; an empty fromKeyID produces anoncrypt.
func (e *Engine) Pack(ctx context.Context, msg *didcomm.UnpackedMessage, fromKeyID, toDID string) ([]byte, error) {
	doc, err := e.resolver.Resolve(ctx, toDID)
	if err != nil {
		return nil, errs.New(errs.PackError, "could not resolve recipient DID", err).WithDetails("did", toDID)
	}
	if e.limits.ToKeysPerRecipientLimit > 0 && len(doc.KeyAgreement) > e.limits.ToKeysPerRecipientLimit {
		return nil, errs.New(errs.PackError, "recipient exceeds to_keys_per_recipient_limit", nil).WithDetails("did", toDID)
	}
	vm, ok := doc.FirstKeyAgreement()
	if !ok {
		return nil, errs.New(errs.PackError, "recipient has no key-agreement key", nil).WithDetails("did", toDID)
	}

	var senderPriv *didcomm.PrivateKey
	if fromKeyID != "" {
		senderSecret, ok := e.secrets.Get(fromKeyID)
		if !ok {
			return nil, errs.New(errs.InternalError, "mediator signing key not found", nil).WithDetails("key_id", fromKeyID)
		}
		senderPriv = senderSecret.PrivateKey
	}

	raw, err := didcomm.Pack(msg, senderPriv, vm.PublicKey)
	if err != nil {
		return nil, errs.New(errs.PackError, "pack failed", err)
	}
	return raw, nil
}

