// Copyright (c) 2026 Tosho. All rights reserved.
// Author: dev@tosho.app

// Package sec verifies identity-provider access tokens.
//
// # Architecture
//
// Tosho never issues credentials — authentication happens against a hosted
// identity provider, and this package only checks the RS256 signature and
// registered claims of the tokens that provider mints. It is injected into
// the middleware layer via the [middleware.TokenVerifier] interface.
package sec

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a provider access token.
//
// The Email claim drives admin-mode authorization: mutating catalog routes
// compare it against the configured allow-list.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Email is the verified address asserted by the identity provider.
	Email string `json:"email"`
}

// Verifier checks identity-provider tokens using the provider's RS256 public key.
type Verifier struct {
	publicKey *rsa.PublicKey
	issuer    string
}

// NewVerifier creates a [Verifier] from a PEM-encoded public key on disk.
func NewVerifier(publicKeyPath, issuer string) (*Verifier, error) {
	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to parse public key: %w", err)
	}

	return &Verifier{
		publicKey: publicKey,
		issuer:    issuer,
	}, nil
}

// VerifyToken checks the signature and validity of a token string.
func (verifier *Verifier) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return verifier.publicKey, nil
	}, jwt.WithIssuer(verifier.issuer))

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: token claims are malformed")
	}

	return claims, nil
}
