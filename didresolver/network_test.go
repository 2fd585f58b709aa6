package didresolver

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/didmediator/didcomm"
)

func TestHTTPNetworkResolverResolvesDocument(t *testing.T) {
	pub, _, err := didcomm.GenerateEd25519KeyPair("did:peer:alice#key-1")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dids/did:peer:alice", r.URL.Path)
		doc := docWire{
			DID: "did:peer:alice",
			KeyAgreement: []wireVMethod{{
				ID:   "did:peer:alice#key-1",
				Type: "X25519KeyAgreementKey2020",
			}},
			Services: []wireService{{ID: "#didcomm", Type: "DIDCommMessaging", ServiceEndpoint: "https://alice.example/inbound"}},
		}
		doc.KeyAgreement[0].PublicKeyJWK.Kty = "OKP"
		doc.KeyAgreement[0].PublicKeyJWK.Crv = "Ed25519"
		doc.KeyAgreement[0].PublicKeyJWK.X = base64.RawURLEncoding.EncodeToString(pub.Raw)
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	defer server.Close()

	resolver := NewHTTPNetworkResolver(server.URL, time.Second)
	doc, err := resolver.Resolve(t.Context(), "did:peer:alice")
	require.NoError(t, err)

	assert.Equal(t, "did:peer:alice", doc.DID)
	require.Len(t, doc.KeyAgreement, 1)
	assert.Equal(t, pub.Raw, doc.KeyAgreement[0].PublicKey.Raw)
	endpoint, ok := doc.ServiceEndpoint()
	require.True(t, ok)
	assert.Equal(t, "https://alice.example/inbound", endpoint)
}

func TestHTTPNetworkResolverNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := NewHTTPNetworkResolver(server.URL, time.Second)
	_, err := resolver.Resolve(t.Context(), "did:peer:missing")
	require.Error(t, err)
}
