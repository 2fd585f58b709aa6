package inbound

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/didhash"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/mailbox"
	mailboxmem "github.com/sage-x-project/didmediator/mailbox/memory"
	"github.com/sage-x-project/didmediator/protocol"
)

func newTightStore(t *testing.T) *mailboxmem.Store {
	t.Helper()
	return mailboxmem.New(mailbox.Limits{
		MaxMessageSize:    1 << 16,
		MaxQueuedMessages: 2,
		MessageExpiry:     time.Hour,
		MaxListedMessages: 10,
	}, nil, time.Minute)
}

// S3: forward never decrypts the inner envelope and force-publishes to
// the live-stream bus addressed to next, not to the original sender.
func TestForwardNeverDecryptsInnerEnvelopeAndForcesLiveDelivery(t *testing.T) {
	h := newHarness(t)
	defer h.store.Close()

	inner := []byte("opaque-e2e-envelope")
	innerJSON, err := json.Marshal(inner)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]string{"next": bobDID})
	require.NoError(t, err)

	raw := packEnvelope(t, h, &didcomm.UnpackedMessage{
		ID:          "fwd-e2e",
		Type:        protocol.ForwardType,
		From:        clientDID,
		CreatedTime: time.Now().Unix(),
		Body:        body,
		Attachments: []didcomm.Attachment{{ID: "a1", Data: json.RawMessage(innerJSON)}},
	})

	result, err := h.pipeline.ProcessEnvelope(context.Background(), nil, raw)
	require.NoError(t, err)
	require.Len(t, result.Stored, 1)
	assert.Equal(t, bobDID, result.Stored[0].RecipientDID)

	got, err := h.store.GetMessage(context.Background(), didhash.Of(bobDID), result.Stored[0].MessageID)
	require.NoError(t, err)
	assert.Equal(t, inner, got, "forwarded bytes must pass through unmodified, never decrypted")
	assert.Equal(t, inner, h.stream.published[didhash.Of(bobDID)], "forward must force live delivery addressed to next")
}

// S4: a message addressed to exactly to_recipients_limit recipients
// succeeds; one more fails with PackError before any store write.
func TestFanOutBoundsRejectOneOverLimit(t *testing.T) {
	h := newHarness(t)
	defer h.store.Close()
	h.pipeline.limits.ToRecipientsLimit = 2

	body, err := json.Marshal(map[string]any{})
	require.NoError(t, err)

	okMsg := &didcomm.UnpackedMessage{
		ID:          "broadcast-ok",
		Type:        "test/1.0/broadcast",
		From:        mediatorDID,
		To:          []string{clientDID, bobDID},
		CreatedTime: time.Now().Unix(),
		Body:        body,
	}
	legs, err := h.pipeline.expand(context.Background(), protocol.MessageResponse{Kind: protocol.ResponseMessage, Message: okMsg})
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	overMsg := &didcomm.UnpackedMessage{
		ID:          "broadcast-over",
		Type:        "test/1.0/broadcast",
		From:        mediatorDID,
		To:          []string{clientDID, bobDID, "did:peer:carol"},
		CreatedTime: time.Now().Unix(),
		Body:        body,
	}
	_, err = h.pipeline.expand(context.Background(), protocol.MessageResponse{Kind: protocol.ResponseMessage, Message: overMsg})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.PackError))
}

// S5: a message stored with a short expiry is listable before expiry
// and absent, with a NotFound fetch, after.
func TestExpiryMakesMessageUnlistableAndUnfetchable(t *testing.T) {
	store := mailboxmem.New(mailbox.Limits{
		MaxMessageSize:    1 << 16,
		MaxQueuedMessages: 10,
		MessageExpiry:     5 * time.Millisecond,
		MaxListedMessages: 10,
	}, nil, time.Hour)
	defer store.Close()

	messageID, err := store.StoreMessage(context.Background(), "", bobDID, mediatorDID, []byte("payload"))
	require.NoError(t, err)

	headers, err := store.ListMessages(context.Background(), didhash.Of(bobDID), mailbox.FolderInbox, 10)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, messageID, headers[0].MessageID)

	time.Sleep(20 * time.Millisecond)

	_, err = store.GetMessage(context.Background(), didhash.Of(bobDID), messageID)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.NotFound))

	headers, err = store.ListMessages(context.Background(), didhash.Of(bobDID), mailbox.FolderInbox, 10)
	require.NoError(t, err)
	assert.Empty(t, headers)
}

// S6: with max_queued_messages=2, three successive stores to the same
// recipient yield two successes and one OverCapacity, collected rather
// than aborting the batch.
func TestCapacityCollectsOverCapacityWithoutAbortingBatch(t *testing.T) {
	h := newHarness(t)
	defer h.store.Close()

	tightStore := newTightStore(t)
	defer tightStore.Close()

	h.pipeline.store = tightStore

	legs := []leg{
		{to: bobDID, packed: []byte("m1")},
		{to: bobDID, packed: []byte("m2")},
		{to: bobDID, packed: []byte("m3")},
	}
	results := h.pipeline.deliver(context.Background(), nil, legs, true, false)

	require.Len(t, results, 3)
	successes, failures := 0, 0
	for _, r := range results {
		if r.Err == nil {
			successes++
		} else {
			assert.True(t, errs.Is(r.Err, errs.OverCapacity))
			failures++
		}
	}
	assert.Equal(t, 2, successes)
	assert.Equal(t, 1, failures)
}
