package wire

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/didresolver"
	"github.com/sage-x-project/didmediator/secretstore"
)

type fakeNetwork struct {
	docs map[string]*didresolver.Document
}

func (f *fakeNetwork) Resolve(_ context.Context, did string) (*didresolver.Document, error) {
	doc, ok := f.docs[did]
	if !ok {
		return nil, assertionError("not found")
	}
	return doc, nil
}

type assertionError string

func (e assertionError) Error() string { return string(e) }

func newSecretStoreFromKeyPair(t *testing.T, kid string, pub, priv []byte) secretstore.Store {
	t.Helper()
	entries := []struct {
		ID            string `json:"id"`
		Type          string `json:"type"`
		PrivateKeyJWK struct {
			Kty string `json:"kty"`
			Crv string `json:"crv"`
			X   string `json:"x"`
			D   string `json:"d"`
		} `json:"privateKeyJwk"`
	}{{ID: kid, Type: "Ed25519"}}
	entries[0].PrivateKeyJWK.Kty = "OKP"
	entries[0].PrivateKeyJWK.Crv = "Ed25519"
	entries[0].PrivateKeyJWK.X = base64.RawURLEncoding.EncodeToString(pub)
	entries[0].PrivateKeyJWK.D = base64.RawURLEncoding.EncodeToString(priv[:32])

	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	store, err := secretstore.Load(raw)
	require.NoError(t, err)
	return store
}

func TestEngineAuthcryptRoundTrip(t *testing.T) {
	recipientPub, recipientPriv, err := didcomm.GenerateEd25519KeyPair("did:peer:mediator#key-1")
	require.NoError(t, err)
	senderPub, senderPriv, err := didcomm.GenerateEd25519KeyPair("did:peer:client#key-1")
	require.NoError(t, err)

	mediatorSecrets := newSecretStoreFromKeyPair(t, "did:peer:mediator#key-1", recipientPub.Raw, recipientPriv.Raw)
	senderSecrets := newSecretStoreFromKeyPair(t, "did:peer:client#key-1", senderPub.Raw, senderPriv.Raw)

	network := &fakeNetwork{docs: map[string]*didresolver.Document{
		"did:peer:mediator": {
			DID: "did:peer:mediator",
			KeyAgreement: []didresolver.VerificationMethod{
				{ID: "did:peer:mediator#key-1", Type: "Ed25519VerificationKey2020", PublicKey: recipientPub},
			},
		},
		"did:peer:client": {
			DID: "did:peer:client",
			KeyAgreement: []didresolver.VerificationMethod{
				{ID: "did:peer:client#key-1", Type: "Ed25519VerificationKey2020", PublicKey: senderPub},
			},
		},
	}}
	resolver := didresolver.New(network, didresolver.Options{})

	senderEngine := New(senderSecrets, resolver, Limits{})
	recipientEngine := New(mediatorSecrets, resolver, Limits{})

	msg := &didcomm.UnpackedMessage{
		ID:          "msg-1",
		Type:        "https://didcomm.org/routing/2.0/forward",
		From:        "did:peer:client",
		CreatedTime: time.Now().Unix(),
	}

	raw, err := senderEngine.Pack(context.Background(), msg, "did:peer:client#key-1", "did:peer:mediator")
	require.NoError(t, err)

	got, meta, err := recipientEngine.Unpack(context.Background(), raw, "did:peer:mediator#key-1")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", got.ID)
	assert.True(t, meta.Authenticated)
}

func TestEngineUnpackRejectsExpiredMessage(t *testing.T) {
	recipientPub, recipientPriv, err := didcomm.GenerateEd25519KeyPair("did:peer:mediator#key-1")
	require.NoError(t, err)

	mediatorSecrets := newSecretStoreFromKeyPair(t, "did:peer:mediator#key-1", recipientPub.Raw, recipientPriv.Raw)
	resolver := didresolver.New(&fakeNetwork{docs: map[string]*didresolver.Document{}}, didresolver.Options{})
	engine := New(mediatorSecrets, resolver, Limits{})

	past := time.Now().Add(-time.Hour).Unix()
	raw, err := didcomm.Pack(&didcomm.UnpackedMessage{
		ID:          "msg-2",
		CreatedTime: time.Now().Unix(),
		ExpiresTime: &past,
	}, nil, recipientPub)
	require.NoError(t, err)

	_, _, err = engine.Unpack(context.Background(), raw, "did:peer:mediator#key-1")
	assert.Error(t, err)
}

func TestEngineUnpackEnforcesCryptoOperationsPerMessage(t *testing.T) {
	recipientPub, recipientPriv, err := didcomm.GenerateEd25519KeyPair("did:peer:mediator#key-1")
	require.NoError(t, err)
	senderPub, senderPriv, err := didcomm.GenerateEd25519KeyPair("did:peer:client#key-1")
	require.NoError(t, err)

	mediatorSecrets := newSecretStoreFromKeyPair(t, "did:peer:mediator#key-1", recipientPub.Raw, recipientPriv.Raw)
	senderSecrets := newSecretStoreFromKeyPair(t, "did:peer:client#key-1", senderPub.Raw, senderPriv.Raw)

	network := &fakeNetwork{docs: map[string]*didresolver.Document{
		"did:peer:mediator": {
			DID: "did:peer:mediator",
			KeyAgreement: []didresolver.VerificationMethod{
				{ID: "did:peer:mediator#key-1", Type: "Ed25519VerificationKey2020", PublicKey: recipientPub},
			},
		},
		"did:peer:client": {
			DID: "did:peer:client",
			KeyAgreement: []didresolver.VerificationMethod{
				{ID: "did:peer:client#key-1", Type: "Ed25519VerificationKey2020", PublicKey: senderPub},
			},
		},
	}}
	resolver := didresolver.New(network, didresolver.Options{})

	senderEngine := New(senderSecrets, resolver, Limits{})
	raw, err := senderEngine.Pack(context.Background(), &didcomm.UnpackedMessage{
		ID:          "msg-3",
		CreatedTime: time.Now().Unix(),
	}, "did:peer:client#key-1", "did:peer:mediator")
	require.NoError(t, err)

	// An authcrypt envelope costs two crypto operations (AEAD open,
	// signature verify); a limit of 1 must reject it before unpack.
	boundedEngine := New(mediatorSecrets, resolver, Limits{CryptoOperationsPerMessage: 1})
	_, _, err = boundedEngine.Unpack(context.Background(), raw, "did:peer:mediator#key-1")
	assert.Error(t, err)

	unboundedEngine := New(mediatorSecrets, resolver, Limits{CryptoOperationsPerMessage: 2})
	_, _, err = unboundedEngine.Unpack(context.Background(), raw, "did:peer:mediator#key-1")
	assert.NoError(t, err)
}

func TestEnginePackEnforcesToKeysPerRecipientLimit(t *testing.T) {
	pub1, _, err := didcomm.GenerateEd25519KeyPair("did:peer:bob#key-1")
	require.NoError(t, err)
	pub2, _, err := didcomm.GenerateEd25519KeyPair("did:peer:bob#key-2")
	require.NoError(t, err)

	network := &fakeNetwork{docs: map[string]*didresolver.Document{
		"did:peer:bob": {
			DID: "did:peer:bob",
			KeyAgreement: []didresolver.VerificationMethod{
				{ID: "did:peer:bob#key-1", Type: "Ed25519VerificationKey2020", PublicKey: pub1},
				{ID: "did:peer:bob#key-2", Type: "Ed25519VerificationKey2020", PublicKey: pub2},
			},
		},
	}}
	resolver := didresolver.New(network, didresolver.Options{})

	msg := &didcomm.UnpackedMessage{ID: "msg-4", CreatedTime: time.Now().Unix()}

	bounded := New(nil, resolver, Limits{ToKeysPerRecipientLimit: 1})
	_, err = bounded.Pack(context.Background(), msg, "", "did:peer:bob")
	assert.Error(t, err)

	unbounded := New(nil, resolver, Limits{ToKeysPerRecipientLimit: 2})
	_, err = unbounded.Pack(context.Background(), msg, "", "did:peer:bob")
	assert.NoError(t, err)
}
