// Package memory is an in-process mailbox.Store, grounded on the
// ticker-driven expiry sweep in core/session/manager.go. Suited to
// single-instance deployments and tests; production deployments use
// mailbox/postgres.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/didmediator/didhash"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/internal/logger"
	"github.com/sage-x-project/didmediator/mailbox"
)

// Store is an in-memory mailbox.Store. Each recipient's mailbox is a
// doubly linked list in enqueue order so FIFO reads and arbitrary-id
// deletes are both O(1)/O(n-scan) without re-sorting.
type Store struct {
	mu        sync.Mutex
	mailboxes map[string]*list.List // did_hash -> *list.List of *mailbox.StoredMessage
	byID      map[string]*list.Element

	limits mailbox.Limits
	pub    mailbox.Publisher
	log    logger.Logger

	stopSweep chan struct{}
	sweepDone chan struct{}
}

// New constructs a Store and starts its background expiry sweep.
func New(limits mailbox.Limits, pub mailbox.Publisher, sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	s := &Store{
		mailboxes: make(map[string]*list.List),
		byID:      make(map[string]*list.Element),
		limits:    limits,
		pub:       pub,
		log:       logger.GetDefaultLogger(),
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	go s.runSweep(sweepInterval)
	return s
}

// Close stops the background sweep.
func (s *Store) Close() {
	close(s.stopSweep)
	<-s.sweepDone
}

func (s *Store) runSweep(interval time.Duration) {
	defer close(s.sweepDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweepExpired()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *Store) sweepExpired() {
	s.mu.Lock()
	now := time.Now()
	swept := 0
	for didHash, mb := range s.mailboxes {
		var next *list.Element
		for el := mb.Front(); el != nil; el = next {
			next = el.Next()
			msg := el.Value.(*mailbox.StoredMessage)
			if msg.Expired(now) {
				mb.Remove(el)
				delete(s.byID, msg.MessageID)
				swept++
			}
		}
		if mb.Len() == 0 {
			delete(s.mailboxes, didHash)
		}
	}
	s.mu.Unlock()

	if swept > 0 {
		s.log.Debug("mailbox sweep removed expired messages", logger.Int("count", swept))
	}
}

// StoreMessage implements mailbox.Store.
func (s *Store) StoreMessage(_ context.Context, _ string, recipientDID, senderDID string, packed []byte) (string, error) {
	if len(packed) > s.limits.MaxMessageSize {
		return "", errs.New(errs.OverSized, "message exceeds max_message_size", nil)
	}

	didHash := didhash.Of(recipientDID)

	s.mu.Lock()
	mb, ok := s.mailboxes[didHash]
	if !ok {
		mb = list.New()
		s.mailboxes[didHash] = mb
	}
	if mb.Len() >= s.limits.MaxQueuedMessages {
		s.mu.Unlock()
		return "", errs.New(errs.OverCapacity, "recipient mailbox is full", nil)
	}

	now := time.Now()
	msg := &mailbox.StoredMessage{
		MessageID:    uuid.NewString(),
		RecipientDID: recipientDID,
		SenderDID:    senderDID,
		PackedBytes:  packed,
		ByteLength:   len(packed),
		EnqueueTime:  now,
		ExpiryTime:   now.Add(s.limits.MessageExpiry),
	}
	el := mb.PushBack(msg)
	s.byID[msg.MessageID] = el
	s.mu.Unlock()

	if s.pub != nil {
		s.pub.Publish(context.Background(), didHash, msg.MessageID, packed)
	}

	return msg.MessageID, nil
}

// ListMessages implements mailbox.Store. FolderInbox reads the
// recipient's own queue directly; FolderOutbox scans every mailbox for
// messages the caller sent (spec.md §9: "outbox lists messages the
// caller sent"), since a sent message is queued under its recipient's
// mailbox, not the sender's.
func (s *Store) ListMessages(_ context.Context, didHash string, folder mailbox.Folder, limit int) ([]mailbox.MessageHeader, error) {
	if limit <= 0 || limit > s.limits.MaxListedMessages {
		limit = s.limits.MaxListedMessages
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	headers := make([]mailbox.MessageHeader, 0, limit)

	if folder == mailbox.FolderOutbox {
		for _, mb := range s.mailboxes {
			for el := mb.Front(); el != nil && len(headers) < limit; el = el.Next() {
				msg := el.Value.(*mailbox.StoredMessage)
				if msg.Expired(now) || didhash.Of(msg.SenderDID) != didHash {
					continue
				}
				headers = append(headers, headerOf(msg))
			}
		}
		return headers, nil
	}

	mb, ok := s.mailboxes[didHash]
	if !ok {
		return nil, nil
	}
	for el := mb.Front(); el != nil && len(headers) < limit; el = el.Next() {
		msg := el.Value.(*mailbox.StoredMessage)
		if msg.Expired(now) {
			continue
		}
		headers = append(headers, headerOf(msg))
	}
	return headers, nil
}

func headerOf(msg *mailbox.StoredMessage) mailbox.MessageHeader {
	return mailbox.MessageHeader{
		MessageID:   msg.MessageID,
		EnqueueTime: msg.EnqueueTime,
		ExpiryTime:  msg.ExpiryTime,
		SenderDID:   msg.SenderDID,
		ByteLength:  msg.ByteLength,
	}
}

// GetMessage implements mailbox.Store.
func (s *Store) GetMessage(_ context.Context, didHash, messageID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byID[messageID]
	if !ok {
		return nil, errs.New(errs.NotFound, "message not found", nil)
	}
	msg := el.Value.(*mailbox.StoredMessage)
	if didhash.Of(msg.RecipientDID) != didHash {
		return nil, errs.New(errs.NotFound, "message not found", nil)
	}
	if msg.Expired(time.Now()) {
		return nil, errs.New(errs.NotFound, "message not found", nil)
	}
	return msg.PackedBytes, nil
}

// DeleteMessage implements mailbox.Store. Authorization (the session's
// DID hash must equal the mailbox's) is enforced by the caller
// supplying sessionDIDHash == didHash; a mismatch is treated the same
// as NotFound rather than leaking existence.
func (s *Store) DeleteMessage(_ context.Context, sessionDIDHash, didHash, messageID string) error {
	if sessionDIDHash != didHash {
		return errs.New(errs.NotFound, "message not found", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byID[messageID]
	if !ok {
		return errs.New(errs.NotFound, "message not found", nil)
	}
	msg := el.Value.(*mailbox.StoredMessage)
	if didhash.Of(msg.RecipientDID) != didHash {
		return errs.New(errs.NotFound, "message not found", nil)
	}

	mb := s.mailboxes[didHash]
	if mb != nil {
		mb.Remove(el)
		if mb.Len() == 0 {
			delete(s.mailboxes, didHash)
		}
	}
	delete(s.byID, messageID)
	return nil
}
