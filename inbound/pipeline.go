// Package inbound implements C6 (spec.md §4.6): parse -> unpack ->
// dispatch -> re-pack -> store/stream, end to end. Per-recipient
// fan-out with collected (not request-aborting) errors is grounded on
// health/checker.go's CheckAll, which runs independent checks
// concurrently behind a sync.WaitGroup and a results mutex.
package inbound

import (
	"context"
	"sync"

	"github.com/sage-x-project/didmediator/didhash"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/internal/logger"
	"github.com/sage-x-project/didmediator/internal/metrics"
	"github.com/sage-x-project/didmediator/mailbox"
	"github.com/sage-x-project/didmediator/protocol"
	"github.com/sage-x-project/didmediator/sessionctx"
	"github.com/sage-x-project/didmediator/wire"
)

// Limits bounds adversarial fan-out (spec.md §4.6/§9). Per-message
// crypto-operation and per-recipient key-fan-out limits are enforced
// by wire.Engine itself (Unpack/Pack), not here.
type Limits struct {
	ToRecipientsLimit int
}

// StreamPublisher is C7's outbound-facing contract used by the pipeline.
type StreamPublisher interface {
	IsClientLive(didHash string, force bool) (streamUUID string, ok bool)
	Publish(didHash string, packed []byte, force bool)
}

// Pipeline wires C1+C2 (via wire.Engine), C5, C3, and C7 into the
// sequence spec.md §4.6 describes.
type Pipeline struct {
	engine      *wire.Engine
	dispatcher  *protocol.Dispatcher
	store       mailbox.Store
	stream      StreamPublisher
	mediatorDID string
	mediatorKID string
	limits      Limits
	log         logger.Logger
}

// New constructs a Pipeline.
func New(engine *wire.Engine, dispatcher *protocol.Dispatcher, store mailbox.Store, stream StreamPublisher, mediatorDID, mediatorKID string, limits Limits) *Pipeline {
	return &Pipeline{
		engine:      engine,
		dispatcher:  dispatcher,
		store:       store,
		stream:      stream,
		mediatorDID: mediatorDID,
		mediatorKID: mediatorKID,
		limits:      limits,
		log:         logger.GetDefaultLogger(),
	}
}

// RecipientOutcome is one fan-out leg's result (spec.md §4.6 step 8).
type RecipientOutcome struct {
	RecipientDID string
	MessageID    string
	Err          error
}

// Result is the pipeline's terminal output: either a store fan-out
// summary, or — for ephemeral (unstored) single-recipient responses —
// the packed bytes to return directly to the caller.
type Result struct {
	Stored    []RecipientOutcome
	Ephemeral []byte
}

// ProcessEnvelope runs steps 1-8 of the inbound sequence over raw
// ciphertext.
func (p *Pipeline) ProcessEnvelope(ctx context.Context, session *sessionctx.Session, raw []byte) (*Result, error) {
	msg, _, err := p.engine.Unpack(ctx, raw, p.mediatorKID)
	if err != nil {
		p.log.Warn("inbound unpack failed", logger.Error(err))
		metrics.InboundMessagesTotal.WithLabelValues("unknown", "unpack_error").Inc()
		return nil, err
	}

	outcome, err := p.dispatcher.Dispatch(ctx, session, msg)
	if err != nil {
		p.log.Warn("inbound dispatch failed", logger.String("type", msg.Type), logger.Error(err))
		metrics.InboundMessagesTotal.WithLabelValues(msg.Type, "dispatch_error").Inc()
		return nil, err
	}

	legs, err := p.expand(ctx, outcome.Response)
	if err != nil {
		p.log.Warn("inbound pack failed", logger.String("type", msg.Type), logger.Error(err))
		metrics.InboundMessagesTotal.WithLabelValues(msg.Type, "pack_error").Inc()
		return nil, err
	}

	if len(legs) == 0 {
		metrics.InboundMessagesTotal.WithLabelValues(msg.Type, "dropped").Inc()
		return &Result{}, nil
	}

	stored := p.deliver(ctx, session, legs, outcome.StoreMessage, outcome.ForceLiveDelivery)

	if !outcome.StoreMessage && len(legs) == 1 {
		metrics.InboundMessagesTotal.WithLabelValues(msg.Type, "ephemeral").Inc()
		return &Result{Ephemeral: legs[0].packed}, nil
	}

	metrics.InboundMessagesTotal.WithLabelValues(msg.Type, "stored").Inc()
	return &Result{Stored: stored}, nil
}

type leg struct {
	to     string
	packed []byte
}

// expand realizes step 5/6: a ResponseMessage fans out to one packed
// envelope per recipient (bounded by to_recipients_limit); a
// ResponsePacked is already a single realized leg.
func (p *Pipeline) expand(ctx context.Context, resp protocol.MessageResponse) ([]leg, error) {
	switch resp.Kind {
	case protocol.ResponseNone:
		return nil, nil

	case protocol.ResponsePacked:
		return []leg{{to: resp.Packed.To, packed: resp.Packed.Bytes}}, nil

	case protocol.ResponseMessage:
		m := resp.Message
		m.From = p.mediatorDID
		if len(m.To) == 0 {
			return nil, errs.New(errs.PackError, "message response has zero recipients", nil)
		}
		if len(m.To) > p.limits.ToRecipientsLimit {
			return nil, errs.New(errs.PackError, "message response exceeds to_recipients_limit", nil)
		}

		legs := make([]leg, 0, len(m.To))
		for _, to := range m.To {
			packed, err := p.engine.Pack(ctx, m, p.mediatorKID, to)
			if err != nil {
				return nil, err
			}
			legs = append(legs, leg{to: to, packed: packed})
		}
		return legs, nil

	default:
		return nil, errs.New(errs.InternalError, "unknown message response kind", nil)
	}
}

// deliver implements step 7: for each leg, store first (if requested),
// then attempt live delivery whether or not the store succeeded; live
// delivery is not attempted before the store. Per-recipient store errors are collected, never
// aborting the request (spec.md §4.6/§7).
func (p *Pipeline) deliver(ctx context.Context, session *sessionctx.Session, legs []leg, store, forceLive bool) []RecipientOutcome {
	results := make([]RecipientOutcome, len(legs))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, l := range legs {
		wg.Add(1)
		go func(i int, l leg) {
			defer wg.Done()

			sessionID := ""
			senderDID := p.mediatorDID
			if session != nil {
				sessionID = session.SessionID
				senderDID = session.DID
			}

			var messageID string
			var opErr error
			if store {
				// senderDID records the authenticated caller who handed
				// this message to the mediator, for outbox bookkeeping
				// (spec.md §9) — distinct from the re-packed envelope's
				// wire-level "from", which is always rewritten to
				// mediator_did regardless of who originated the message.
				messageID, opErr = p.store.StoreMessage(ctx, sessionID, l.to, senderDID, l.packed)
				if opErr != nil {
					p.log.Warn("mailbox store failed for recipient", logger.String("recipient", l.to), logger.Error(opErr))
					metrics.InboundRecipientErrors.WithLabelValues("store").Inc()
				}
			}

			if p.stream != nil {
				hash := recipientHash(l.to)
				if _, live := p.stream.IsClientLive(hash, forceLive); live {
					p.stream.Publish(hash, l.packed, forceLive)
					metrics.StreamPublishes.WithLabelValues("delivered").Inc()
				} else {
					metrics.StreamPublishes.WithLabelValues("skipped").Inc()
				}
			}

			mu.Lock()
			results[i] = RecipientOutcome{RecipientDID: l.to, MessageID: messageID, Err: opErr}
			mu.Unlock()
		}(i, l)
	}

	wg.Wait()
	return results
}

func recipientHash(did string) string {
	return didhash.Of(did)
}
