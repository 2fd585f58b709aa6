// Package mailbox implements C3 (spec.md §4.3): per-recipient bounded
// FIFO queues with expiry, listing, delete, and a live-stream publish
// hook. Two backends share the Store contract: memory (dev/test) and
// postgres (production), mirroring pkg/storage's in-memory/Postgres
// split and grounded on core/session/manager.go's ticker-driven expiry
// sweep.
package mailbox

import (
	"context"
	"time"
)

// Folder selects which side of a mailbox list_messages reads.
type Folder string

const (
	FolderInbox  Folder = "inbox"
	FolderOutbox Folder = "outbox"
)

// StoredMessage is the tuple persisted per recipient (spec.md §3).
type StoredMessage struct {
	MessageID    string
	RecipientDID string
	SenderDID    string
	PackedBytes  []byte
	ByteLength   int
	EnqueueTime  time.Time
	ExpiryTime   time.Time
}

// Expired reports whether m is past its expiry at instant now.
func (m StoredMessage) Expired(now time.Time) bool {
	return !now.Before(m.ExpiryTime)
}

// MessageHeader is the list_messages projection of a StoredMessage
// (spec.md §4.3): everything but the packed payload.
type MessageHeader struct {
	MessageID   string
	EnqueueTime time.Time
	ExpiryTime  time.Time
	SenderDID   string
	ByteLength  int
}

// Publisher is the live-stream bus's inbound side (C7). StoreMessage
// invokes it on every successful enqueue; callers that already drive
// live delivery themselves (the inbound pipeline's explicit
// try_live_stream step) should construct the store with a nil
// Publisher to avoid a double publish.
type Publisher interface {
	Publish(ctx context.Context, recipientDIDHash string, messageID string, packed []byte)
}

// Store is the C3 contract.
type Store interface {
	StoreMessage(ctx context.Context, sessionID, recipientDID, senderDID string, packed []byte) (messageID string, err error)
	ListMessages(ctx context.Context, didHash string, folder Folder, limit int) ([]MessageHeader, error)
	GetMessage(ctx context.Context, didHash, messageID string) ([]byte, error)
	DeleteMessage(ctx context.Context, sessionDIDHash, didHash, messageID string) error
}

// Limits bounds mailbox behavior per spec.md §3/§6.
type Limits struct {
	MaxMessageSize       int
	MaxQueuedMessages    int
	MessageExpiry        time.Duration
	MaxListedMessages    int
	MaxDeletedMessages   int
}
