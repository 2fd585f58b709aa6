// Package didresolver implements C2 (spec.md §4.2): resolves DIDs to
// key material and service endpoints behind a capacity-bounded,
// TTL-expiring LRU cache. Grounded on the teacher's did.Resolver
// interface shape (did/resolver.go) and the cache/expiry pattern in
// health/checker.go, generalized from on-chain agent metadata to
// DIDComm DID documents.
package didresolver

import (
	"context"

	"github.com/sage-x-project/didmediator/didcomm"
)

// VerificationMethod is one entry in a DID document's verification
// method or key-agreement list.
type VerificationMethod struct {
	ID         string
	Type       string
	PublicKey  *didcomm.PublicKey
}

// Service is a DID document service endpoint entry.
type Service struct {
	ID              string
	Type            string
	ServiceEndpoint string
}

// Document is the subset of a resolved DID document the mediator needs:
// verification methods (signature check), key-agreement keys
// (encryption), and service endpoints (outbound routing).
type Document struct {
	DID                 string
	VerificationMethods []VerificationMethod
	KeyAgreement        []VerificationMethod
	Services            []Service
}

// VerificationMethodByID returns the verification method with the given
// id, or false if absent.
func (d *Document) VerificationMethodByID(id string) (VerificationMethod, bool) {
	for _, vm := range d.VerificationMethods {
		if vm.ID == id {
			return vm, true
		}
	}
	return VerificationMethod{}, false
}

// KeyAgreementByID returns the key-agreement key with the given id, or
// false if absent.
func (d *Document) KeyAgreementByID(id string) (VerificationMethod, bool) {
	for _, vm := range d.KeyAgreement {
		if vm.ID == id {
			return vm, true
		}
	}
	return VerificationMethod{}, false
}

// FirstKeyAgreement returns the document's first key-agreement key,
// used when the caller has no specific key id to target (e.g. packing
// a fresh outbound message).
func (d *Document) FirstKeyAgreement() (VerificationMethod, bool) {
	if len(d.KeyAgreement) == 0 {
		return VerificationMethod{}, false
	}
	return d.KeyAgreement[0], true
}

// ServiceEndpoint returns the endpoint of the first service that has a
// non-empty endpoint, whatever its service type. wire.Engine.Unpack uses
// it to record the sender's service URL.
func (d *Document) ServiceEndpoint() (string, bool) {
	for _, svc := range d.Services {
		if svc.ServiceEndpoint != "" {
			return svc.ServiceEndpoint, true
		}
	}
	return "", false
}

// NetworkResolver performs the actual (non-cached) DID resolution, e.g.
// over a did:web HTTPS GET or a did:peer local derivation. Swappable
// per deployment; production wiring and test doubles both implement
// this.
type NetworkResolver interface {
	Resolve(ctx context.Context, did string) (*Document, error)
}
