package auth

import (
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sage-x-project/didmediator/errs"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 24 * time.Hour
)

// TokenPair is the (access_token, refresh_token) result of spec.md §3,
// both carrying sub=did, iat, exp and signed with the mediator's
// Ed25519 JWT key. Stateless: there is no server-side session table,
// so revocation is only by key rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenIssuer mints and validates bearer tokens, grounded on
// oidc/auth0/auth0.go's jwt.NewWithClaims/SignedString usage, adapted
// from RS256 client-assertion JWTs to EdDSA bearer tokens.
type TokenIssuer struct {
	signingKey ed25519.PrivateKey
	verifyKey  ed25519.PublicKey
}

// NewTokenIssuer constructs a TokenIssuer from the mediator's Ed25519
// JWT signing key pair.
func NewTokenIssuer(signingKey ed25519.PrivateKey, verifyKey ed25519.PublicKey) *TokenIssuer {
	return &TokenIssuer{signingKey: signingKey, verifyKey: verifyKey}
}

// Mint issues a fresh TokenPair for did.
func (t *TokenIssuer) Mint(did string) (TokenPair, error) {
	access, err := t.sign(did, accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := t.sign(did, refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (t *TokenIssuer) sign(did string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": did,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", errs.New(errs.InternalError, "sign token", err)
	}
	return signed, nil
}

// Validate checks a bearer token's signature and expiry, returning the
// subject DID (spec.md §8 invariant 4: "A bearer token validates iff
// its signature verifies under the current JWT key and now < exp").
func (t *TokenIssuer) Validate(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, errs.New(errs.AuthFailed, "unexpected signing method", nil)
		}
		return t.verifyKey, nil
	}, jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil || !token.Valid {
		return "", errs.New(errs.AuthFailed, "invalid bearer token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errs.New(errs.AuthFailed, "invalid bearer token claims", nil)
	}
	did, ok := claims["sub"].(string)
	if !ok || did == "" {
		return "", errs.New(errs.AuthFailed, "invalid bearer token subject", nil)
	}
	return did, nil
}
