// Package auth implements C4 (spec.md §4.4): a two-step DIDComm-native
// challenge/response authentication service that mints stateless
// Ed25519-signed JWTs. The challenge store is grounded on
// core/handshake/server.go's mutex-guarded pendingState map.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/sage-x-project/didmediator/errs"
)

const challengeTTL = 60 * time.Second

// Challenge is the AuthChallenge tuple of spec.md §3: (nonce, bound_did, issued_at, expires_at).
type Challenge struct {
	Nonce     string
	BoundDID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
	consumed  bool
}

// Expired reports whether c is past its expiry at instant now.
func (c Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// challengeStore is a single-use, mutex-guarded in-memory map of
// outstanding challenges keyed by nonce, mirroring
// core/handshake/server.go's pending map of pendingState.
type challengeStore struct {
	mu    sync.Mutex
	byKey map[string]*Challenge
}

func newChallengeStore() *challengeStore {
	return &challengeStore{byKey: make(map[string]*Challenge)}
}

// issue creates and stores a fresh Challenge bound to did.
func (s *challengeStore) issue(did string) (*Challenge, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, errs.New(errs.InternalError, "generate challenge nonce", err)
	}
	now := time.Now()
	c := &Challenge{
		Nonce:     nonce,
		BoundDID:  did,
		IssuedAt:  now,
		ExpiresAt: now.Add(challengeTTL),
	}
	s.mu.Lock()
	s.byKey[nonce] = c
	s.mu.Unlock()
	return c, nil
}

// consume looks up and single-use-consumes the challenge for nonce,
// failing if absent, already consumed, or expired. A second call with
// the same nonce always fails — replay is structurally impossible.
func (s *challengeStore) consume(nonce string, now time.Time) (*Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byKey[nonce]
	if !ok || c.consumed || c.Expired(now) {
		return nil, false
	}
	c.consumed = true
	delete(s.byKey, nonce)
	return c, true
}

func randomNonce() (string, error) {
	buf := make([]byte, 16) // 128-bit nonce (spec.md §4.4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
