// Package protocol implements C5 (spec.md §4.5): routes an
// UnpackedMessage to its protocol handler by type URI. Grounded on
// core/handshake/server.go's phase-keyed switch in SendMessage,
// generalized from a fixed four-phase A2A handshake to an open
// registry of DIDComm protocol type URIs.
package protocol

import (
	"context"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/sessionctx"
)

// MessageResponseKind discriminates the MessageResponse sum type
// (spec.md §4.5).
type MessageResponseKind int

const (
	// ResponseNone means drop: nothing is packed or stored.
	ResponseNone MessageResponseKind = iota
	// ResponsePacked carries an already-packed envelope (typically a forward).
	ResponsePacked
	// ResponseMessage carries a plaintext message, to be packed once per recipient by C6.
	ResponseMessage
)

// PackedMessage is the ResponsePacked payload.
type PackedMessage struct {
	To    string
	Bytes []byte
}

// MessageResponse is the handler-produced outbound payload.
type MessageResponse struct {
	Kind    MessageResponseKind
	Packed  PackedMessage
	Message *didcomm.UnpackedMessage
}

// ProcessMessageResponse is the handler output sum type (spec.md §4.5).
type ProcessMessageResponse struct {
	StoreMessage      bool
	ForceLiveDelivery bool
	Response          MessageResponse
}

// Handler processes one unpacked message within session's authority.
type Handler func(ctx context.Context, session *sessionctx.Session, msg *didcomm.UnpackedMessage) (ProcessMessageResponse, error)
