// Package streaming implements C7 (spec.md §4.6/§5): delivery of
// just-queued messages to subscribed live WebSocket sessions. Grounded
// on pkg/agent/transport/websocket/server.go's connection-tracking
// WSServer, generalized from a request/response RPC transport to a
// push-only pub/sub bus keyed by DID hash.
package streaming

import "sync"

// subscription is one live client's stream identity (spec.md §6's
// "did_hash -> (stream_uuid, instance_id)" directory).
type subscription struct {
	streamUUID string
	instanceID string
	send       chan []byte
}

// Directory tracks which DID hashes currently have a live subscription
// on this mediator instance. Subscriptions on other instances are visible
// to streaming_is_client_live(force=true) only through an injected
// RemoteLookup; this module ships no RemoteLookup implementation, and
// cmd/mediator passes nil.
type Directory struct {
	mu           sync.RWMutex
	local        map[string]*subscription
	instanceID   string
	remoteLookup RemoteLookup
}

// RemoteLookup answers whether didHash has a live subscription on any
// instance other than this one.
type RemoteLookup interface {
	IsLiveElsewhere(didHash string) (streamUUID string, ok bool)
}

// NewDirectory constructs a Directory for the given instance id.
// remoteLookup may be nil when running a single instance.
func NewDirectory(instanceID string, remoteLookup RemoteLookup) *Directory {
	return &Directory{
		local:        make(map[string]*subscription),
		instanceID:   instanceID,
		remoteLookup: remoteLookup,
	}
}

// Register associates didHash with a new live subscription and returns
// the channel the caller should read outbound frames from.
func (d *Directory) Register(didHash, streamUUID string) chan []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	send := make(chan []byte, 32)
	d.local[didHash] = &subscription{streamUUID: streamUUID, instanceID: d.instanceID, send: send}
	return send
}

// Unregister removes didHash's subscription, closing its channel.
func (d *Directory) Unregister(didHash string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sub, ok := d.local[didHash]
	if !ok {
		return
	}
	close(sub.send)
	delete(d.local, didHash)
}

// IsClientLive implements streaming_is_client_live(did_hash, force)
// (spec.md §4.3): returns the subscriber's stream id iff didHash has a
// live subscription on this instance, or — when force is true — on
// any instance known to RemoteLookup.
func (d *Directory) IsClientLive(didHash string, force bool) (string, bool) {
	d.mu.RLock()
	sub, ok := d.local[didHash]
	d.mu.RUnlock()
	if ok {
		return sub.streamUUID, true
	}
	if force && d.remoteLookup != nil {
		return d.remoteLookup.IsLiveElsewhere(didHash)
	}
	return "", false
}

// Publish implements streaming_publish_message (spec.md §4.3): appends
// packed to didHash's live channel if a local subscription exists.
// force is accepted for interface parity with the public contract and
// is ignored: delivery goes only to a subscription on this instance,
// with or without a RemoteLookup. Publish failures (a full or absent
// channel) are never propagated to the caller.
func (d *Directory) Publish(didHash string, packed []byte, _ bool) {
	d.mu.RLock()
	sub, ok := d.local[didHash]
	d.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case sub.send <- packed:
	default:
		// slow or stalled subscriber; drop rather than block the publisher.
	}
}
