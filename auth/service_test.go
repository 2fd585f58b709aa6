package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/didresolver"
	"github.com/sage-x-project/didmediator/secretstore"
	"github.com/sage-x-project/didmediator/wire"
)

type stubNetwork struct {
	docs map[string]*didresolver.Document
}

func (s *stubNetwork) Resolve(_ context.Context, did string) (*didresolver.Document, error) {
	doc, ok := s.docs[did]
	if !ok {
		return nil, errNotFound
	}
	return doc, nil
}

var errNotFound = assertErr("did not found")

type assertErr string

func (e assertErr) Error() string { return string(e) }

func storeFor(t *testing.T, kid string, pub, priv []byte) secretstore.Store {
	t.Helper()
	type jwkEntry struct {
		ID            string `json:"id"`
		Type          string `json:"type"`
		PrivateKeyJWK struct {
			Kty string `json:"kty"`
			Crv string `json:"crv"`
			X   string `json:"x"`
			D   string `json:"d"`
		} `json:"privateKeyJwk"`
	}
	e := jwkEntry{ID: kid, Type: "Ed25519"}
	e.PrivateKeyJWK.Kty = "OKP"
	e.PrivateKeyJWK.Crv = "Ed25519"
	e.PrivateKeyJWK.X = base64.RawURLEncoding.EncodeToString(pub)
	e.PrivateKeyJWK.D = base64.RawURLEncoding.EncodeToString(priv[:32])

	raw, err := json.Marshal([]jwkEntry{e})
	require.NoError(t, err)
	st, err := secretstore.Load(raw)
	require.NoError(t, err)
	return st
}

func setupService(t *testing.T) (*Service, *wire.Engine, string, string) {
	t.Helper()
	mediatorDID := "did:peer:mediator"
	mediatorKeyID := mediatorDID + "#key-1"
	clientDID := "did:peer:client"
	clientKeyID := clientDID + "#key-1"

	mPub, mPriv, err := didcomm.GenerateEd25519KeyPair(mediatorKeyID)
	require.NoError(t, err)
	cPub, cPriv, err := didcomm.GenerateEd25519KeyPair(clientKeyID)
	require.NoError(t, err)

	mediatorSecrets := storeFor(t, mediatorKeyID, mPub.Raw, mPriv.Raw)
	clientSecrets := storeFor(t, clientKeyID, cPub.Raw, cPriv.Raw)

	network := &stubNetwork{docs: map[string]*didresolver.Document{
		mediatorDID: {DID: mediatorDID, KeyAgreement: []didresolver.VerificationMethod{{ID: mediatorKeyID, PublicKey: mPub}}},
		clientDID:   {DID: clientDID, KeyAgreement: []didresolver.VerificationMethod{{ID: clientKeyID, PublicKey: cPub}}},
	}}
	resolver := didresolver.New(network, didresolver.Options{})

	serverEngine := wire.New(mediatorSecrets, resolver, wire.Limits{})
	clientEngine := wire.New(clientSecrets, resolver, wire.Limits{})

	jwtPub, jwtPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	svc := NewService(serverEngine, mediatorDID, mediatorKeyID, jwtPriv, jwtPub)
	return svc, clientEngine, mediatorDID, clientDID
}

func buildAuthenticateEnvelope(t *testing.T, clientEngine *wire.Engine, clientDID, clientKeyID, mediatorDID string, c *Challenge) []byte {
	t.Helper()
	body, err := json.Marshal(authBody{
		Nonce:     c.Nonce,
		BoundDID:  c.BoundDID,
		IssuedAt:  c.IssuedAt.Unix(),
		ExpiresAt: c.ExpiresAt.Unix(),
	})
	require.NoError(t, err)

	expires := time.Now().Add(60 * time.Second).Unix()
	msg := &didcomm.UnpackedMessage{
		ID:          "authn-1",
		Type:        authenticateType,
		From:        clientDID,
		To:          []string{mediatorDID},
		CreatedTime: time.Now().Unix(),
		ExpiresTime: &expires,
		Body:        body,
	}

	raw, err := clientEngine.Pack(context.Background(), msg, clientKeyID, mediatorDID)
	require.NoError(t, err)
	return raw
}

func TestAuthenticateSucceedsAndMintsTokens(t *testing.T) {
	svc, clientEngine, mediatorDID, clientDID := setupService(t)
	clientKeyID := clientDID + "#key-1"

	challenge, err := svc.IssueChallenge(clientDID)
	require.NoError(t, err)

	envelope := buildAuthenticateEnvelope(t, clientEngine, clientDID, clientKeyID, mediatorDID, challenge)

	pair, err := svc.HandleAuthenticate(context.Background(), envelope)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	did, err := svc.Validate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, clientDID, did)
}

func TestAuthenticateRejectsReplayedChallenge(t *testing.T) {
	svc, clientEngine, mediatorDID, clientDID := setupService(t)
	clientKeyID := clientDID + "#key-1"

	challenge, err := svc.IssueChallenge(clientDID)
	require.NoError(t, err)
	envelope := buildAuthenticateEnvelope(t, clientEngine, clientDID, clientKeyID, mediatorDID, challenge)

	_, err = svc.HandleAuthenticate(context.Background(), envelope)
	require.NoError(t, err)

	_, err = svc.HandleAuthenticate(context.Background(), envelope)
	assert.Error(t, err)
}

func TestAuthenticateRejectsMismatchedBoundDID(t *testing.T) {
	svc, clientEngine, mediatorDID, clientDID := setupService(t)
	clientKeyID := clientDID + "#key-1"

	challenge, err := svc.IssueChallenge("did:peer:someone-else")
	require.NoError(t, err)
	envelope := buildAuthenticateEnvelope(t, clientEngine, clientDID, clientKeyID, mediatorDID, challenge)

	_, err = svc.HandleAuthenticate(context.Background(), envelope)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredOrBadToken(t *testing.T) {
	svc, _, _, _ := setupService(t)
	_, err := svc.Validate("not-a-jwt")
	assert.Error(t, err)

	expired, err := svc.tokens.sign("did:peer:client", -time.Minute)
	require.NoError(t, err)
	_, err = svc.Validate(expired)
	assert.Error(t, err)
}
