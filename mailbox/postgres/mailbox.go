package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sage-x-project/didmediator/didhash"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/mailbox"
)

// StoreMessage implements mailbox.Store.
func (s *Store) StoreMessage(ctx context.Context, _ string, recipientDID, senderDID string, packed []byte) (string, error) {
	if len(packed) > s.limits.MaxMessageSize {
		return "", errs.New(errs.OverSized, "message exceeds max_message_size", nil)
	}

	recipientHash := didhash.Of(recipientDID)
	senderHash := didhash.Of(senderDID)

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM mailbox_messages WHERE recipient_hash = $1 AND expiry_time > now()`,
		recipientHash,
	).Scan(&count)
	if err != nil {
		return "", errs.New(errs.InternalError, "count mailbox", err)
	}
	if count >= s.limits.MaxQueuedMessages {
		return "", errs.New(errs.OverCapacity, "recipient mailbox is full", nil)
	}

	now := time.Now()
	messageID := uuid.NewString()
	expiry := now.Add(s.limits.MessageExpiry)

	_, err = s.pool.Exec(ctx, `
		INSERT INTO mailbox_messages
			(message_id, recipient_did, recipient_hash, sender_did, sender_hash, packed_bytes, byte_length, enqueue_time, expiry_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, messageID, recipientDID, recipientHash, senderDID, senderHash, packed, len(packed), now, expiry)
	if err != nil {
		return "", errs.New(errs.InternalError, "insert mailbox message", err)
	}

	if s.pub != nil {
		s.pub.Publish(ctx, recipientHash, messageID, packed)
	}

	return messageID, nil
}

// ListMessages implements mailbox.Store, returning headers in FIFO
// (enqueue) order. FolderInbox reads by recipient_hash; FolderOutbox
// reads by sender_hash (spec.md §9: "outbox lists messages the caller
// sent"), since a sent message is filed under its recipient's hash,
// not the sender's.
func (s *Store) ListMessages(ctx context.Context, didHash string, folder mailbox.Folder, limit int) ([]mailbox.MessageHeader, error) {
	if limit <= 0 || limit > s.limits.MaxListedMessages {
		limit = s.limits.MaxListedMessages
	}

	column := "recipient_hash"
	if folder == mailbox.FolderOutbox {
		column = "sender_hash"
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT message_id, enqueue_time, expiry_time, sender_did, byte_length
		FROM mailbox_messages
		WHERE %s = $1 AND expiry_time > now()
		ORDER BY enqueue_time ASC
		LIMIT $2
	`, column), didHash, limit)
	if err != nil {
		return nil, errs.New(errs.InternalError, "list mailbox messages", err)
	}
	defer rows.Close()

	var headers []mailbox.MessageHeader
	for rows.Next() {
		var h mailbox.MessageHeader
		var senderDID *string
		if err := rows.Scan(&h.MessageID, &h.EnqueueTime, &h.ExpiryTime, &senderDID, &h.ByteLength); err != nil {
			return nil, errs.New(errs.InternalError, "scan mailbox message", err)
		}
		if senderDID != nil {
			h.SenderDID = *senderDID
		}
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.New(errs.InternalError, "iterate mailbox messages", err)
	}
	return headers, nil
}

// GetMessage implements mailbox.Store.
func (s *Store) GetMessage(ctx context.Context, didHash, messageID string) ([]byte, error) {
	var packed []byte
	err := s.pool.QueryRow(ctx, `
		SELECT packed_bytes FROM mailbox_messages
		WHERE message_id = $1 AND recipient_hash = $2 AND expiry_time > now()
	`, messageID, didHash).Scan(&packed)
	if err == pgx.ErrNoRows {
		return nil, errs.New(errs.NotFound, "message not found", nil)
	}
	if err != nil {
		return nil, errs.New(errs.InternalError, "get mailbox message", err)
	}
	return packed, nil
}

// DeleteMessage implements mailbox.Store.
func (s *Store) DeleteMessage(ctx context.Context, sessionDIDHash, didHash, messageID string) error {
	if sessionDIDHash != didHash {
		return errs.New(errs.NotFound, "message not found", nil)
	}

	tag, err := s.pool.Exec(ctx, `
		DELETE FROM mailbox_messages WHERE message_id = $1 AND recipient_hash = $2
	`, messageID, didHash)
	if err != nil {
		return errs.New(errs.InternalError, "delete mailbox message", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.NotFound, "message not found", nil)
	}
	return nil
}

// SweepExpired deletes all expired messages across all recipients, run
// periodically by the owning process (spec.md §4.3: "periodic sweep
// plus lazy check on read"). Failures are logged and swallowed by the
// caller — they must never affect the inbound pipeline.
func (s *Store) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM mailbox_messages WHERE expiry_time <= now()`)
	if err != nil {
		return 0, fmt.Errorf("mailbox/postgres: sweep expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
