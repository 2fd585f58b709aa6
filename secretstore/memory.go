package secretstore

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/errs"
)

// Store is the C1 contract: get(key_id) -> Secret?, list_dids() -> set<DID>.
type Store interface {
	Get(keyID string) (Secret, bool)
	ListDIDs() []string
}

// memoryStore implements Store with an immutable, loaded-once map,
// guarded by an RWMutex for concurrent reader access (grounded on
// crypto/storage/memory.go's memoryKeyStorage).
type memoryStore struct {
	mu      sync.RWMutex
	secrets map[string]Secret
	dids    map[string]struct{}
}

// Load parses raw (a JSON array of JWK entries, spec.md §6) and returns
// a populated, ready-to-query Store. Malformed input is a ConfigError:
// secret loading happens once at startup and any failure is fatal.
func Load(raw []byte) (Store, error) {
	var entries []jwk
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errs.New(errs.ConfigError, "mediator_secrets: invalid JSON", err)
	}

	s := &memoryStore{
		secrets: make(map[string]Secret, len(entries)),
		dids:    make(map[string]struct{}),
	}

	for _, e := range entries {
		secret, err := decodeJWKEntry(e)
		if err != nil {
			return nil, errs.New(errs.ConfigError, fmt.Sprintf("mediator_secrets: entry %q", e.ID), err)
		}
		s.secrets[secret.KeyID] = secret
		s.dids[secret.DID()] = struct{}{}
	}

	return s, nil
}

func decodeJWKEntry(e jwk) (Secret, error) {
	if e.ID == "" {
		return Secret{}, fmt.Errorf("missing id")
	}

	pubRaw, err := base64.RawURLEncoding.DecodeString(e.PrivateKeyJWK.X)
	if err != nil {
		return Secret{}, fmt.Errorf("decode x: %w", err)
	}
	privRaw, err := base64.RawURLEncoding.DecodeString(e.PrivateKeyJWK.D)
	if err != nil {
		return Secret{}, fmt.Errorf("decode d: %w", err)
	}

	var keyType didcomm.KeyType
	switch e.PrivateKeyJWK.Crv {
	case "Ed25519":
		keyType = didcomm.KeyTypeEd25519
		if len(privRaw) == ed25519.SeedSize {
			privRaw = ed25519.NewKeyFromSeed(privRaw)
		}
	case "X25519":
		keyType = didcomm.KeyTypeX25519
	default:
		return Secret{}, fmt.Errorf("unsupported crv %q", e.PrivateKeyJWK.Crv)
	}

	return Secret{
		KeyID:      e.ID,
		Type:       keyType,
		PrivateKey: &didcomm.PrivateKey{KID: e.ID, Type: keyType, Raw: privRaw},
		PublicKey:  &didcomm.PublicKey{KID: e.ID, Type: keyType, Raw: pubRaw},
	}, nil
}

func (s *memoryStore) Get(keyID string) (Secret, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	secret, ok := s.secrets[keyID]
	return secret, ok
}

func (s *memoryStore) ListDIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.dids))
	for did := range s.dids {
		out = append(out, did)
	}
	sort.Strings(out)
	return out
}
