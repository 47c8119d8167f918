// Package authn implements the identity boundary: asymmetric token
// issuance at the identity writer and independent stateless verification
// at every other service, with no runtime call back to identity.
package authn

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the access token payload: subject, username, role, and the
// standard expiry claim.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Issuer signs tokens with an RSA private key. Only the identity service
// holds one.
type Issuer struct {
	privateKey *rsa.PrivateKey
	issuer     string
	ttl        time.Duration
}

// NewIssuer parses a PEM-encoded PKCS1 or PKCS8 RSA private key.
func NewIssuer(privateKeyPEM []byte, issuer string, ttl time.Duration) (*Issuer, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("authn: failed to parse private key: %w", err)
	}

	return &Issuer{privateKey: key, issuer: issuer, ttl: ttl}, nil
}

// Issue mints a signed token for the given subject, username, and role.
func (i *Issuer) Issue(subject, username, role string) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Username: username,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signed, err := token.SignedString(i.privateKey)
	if err != nil {
		return "", fmt.Errorf("authn: failed to sign token: %w", err)
	}

	return signed, nil
}

// Verifier validates tokens against a configured RSA public key. Every
// non-identity service holds one and never calls identity at request
// time.
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses a PEM-encoded RSA public key.
func NewVerifier(publicKeyPEM []byte) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("authn: failed to parse public key: %w", err)
	}

	return &Verifier{publicKey: key}, nil
}

// Verify parses and validates tokenString, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("authn: unexpected signing method %v", t.Header["alg"])
		}

		return v.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("authn: token verification failed: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("authn: token invalid")
	}

	return claims, nil
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("authn: failed to hash password: %w", err)
	}

	return string(hash), nil
}

// ComparePassword reports whether plaintext matches the stored bcrypt hash.
func ComparePassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
