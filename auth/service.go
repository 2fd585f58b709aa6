package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"time"

	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/internal/metrics"
	"github.com/sage-x-project/didmediator/wire"
)

// authBody is the body of the client's "authenticate" DIDComm message
// (spec.md §4.4).
type authBody struct {
	Nonce     string `json:"nonce"`
	BoundDID  string `json:"bound_did"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

const authenticateType = "https://affinidi.com/atm/1.0/authenticate"

// Service implements C4. All failures surface as the coarse AuthFailed
// kind (spec.md §4.4: "the same error kind for every distinct failure
// to avoid probing").
type Service struct {
	challenges    *challengeStore
	tokens        *TokenIssuer
	engine        *wire.Engine
	mediatorDID   string
	mediatorKeyID string
}

// NewService constructs the authentication service. mediatorKeyID
// names the secret used both to unpack the authenticate envelope and,
// via jwtSigningKey, to mint bearer tokens.
func NewService(engine *wire.Engine, mediatorDID, mediatorKeyID string, jwtSigningKey ed25519.PrivateKey, jwtVerifyKey ed25519.PublicKey) *Service {
	return &Service{
		challenges:    newChallengeStore(),
		tokens:        NewTokenIssuer(jwtSigningKey, jwtVerifyKey),
		engine:        engine,
		mediatorDID:   mediatorDID,
		mediatorKeyID: mediatorKeyID,
	}
}

// IssueChallenge implements step 1: client posts {did}, service
// returns the stored AuthChallenge as plain data; no signature is
// attached to it.
func (s *Service) IssueChallenge(did string) (*Challenge, error) {
	c, err := s.challenges.issue(did)
	if err != nil {
		return nil, err
	}
	metrics.AuthChallengesIssued.Inc()
	return c, nil
}

// HandleAuthenticate implements step 2: verify the client's authcrypt
// envelope against an outstanding challenge and, on success, mint a
// TokenPair for the authenticated DID.
func (s *Service) HandleAuthenticate(ctx context.Context, envelope []byte) (TokenPair, error) {
	pair, err := s.handleAuthenticate(ctx, envelope)
	if err != nil {
		metrics.AuthFailures.Inc()
		return TokenPair{}, errs.New(errs.AuthFailed, "authentication failed", err)
	}
	metrics.AuthTokensMinted.Inc()
	return pair, nil
}

func (s *Service) handleAuthenticate(ctx context.Context, envelope []byte) (TokenPair, error) {
	msg, meta, err := s.engine.Unpack(ctx, envelope, s.mediatorKeyID)
	if err != nil {
		return TokenPair{}, err
	}
	if !meta.Encrypted || !meta.Authenticated {
		return TokenPair{}, errFailedAuth("envelope is not an authenticated encrypted message")
	}
	if msg.Type != authenticateType {
		return TokenPair{}, errFailedAuth("unexpected message type")
	}

	var body authBody
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return TokenPair{}, errFailedAuth("malformed authenticate body")
	}

	if msg.From == "" || msg.From != body.BoundDID {
		return TokenPair{}, errFailedAuth("from does not match bound_did")
	}

	challenge, ok := s.challenges.consume(body.Nonce, time.Now())
	if !ok {
		return TokenPair{}, errFailedAuth("challenge not found, consumed, or expired")
	}
	if challenge.BoundDID != body.BoundDID ||
		challenge.IssuedAt.Unix() != body.IssuedAt ||
		challenge.ExpiresAt.Unix() != body.ExpiresAt {
		return TokenPair{}, errFailedAuth("challenge fields do not match")
	}

	if msg.ExpiresTime != nil && *msg.ExpiresTime <= time.Now().Unix() {
		return TokenPair{}, errFailedAuth("envelope has expired")
	}

	return s.tokens.Mint(msg.From)
}

// Validate checks a bearer token and returns the authenticated DID.
func (s *Service) Validate(raw string) (string, error) {
	return s.tokens.Validate(raw)
}

func errFailedAuth(reason string) error {
	return &authError{reason: reason}
}

type authError struct{ reason string }

func (e *authError) Error() string { return e.reason }
