package util

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the Supabase access token claims the API relies on.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// parsePublicKey decodes a PEM PKIX public key.
func parsePublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// keyFor picks verification material by the token's signing method. HMAC
// tokens use keyMaterial as the shared secret; RSA and ECDSA tokens expect
// it to be a PEM public key.
func keyFor(keyMaterial string) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if strings.HasPrefix(keyMaterial, "-----BEGIN") {
				return nil, errors.New("HMAC token presented but a public key is configured")
			}
			return []byte(keyMaterial), nil
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			return parsePublicKey(keyMaterial)
		default:
			return nil, fmt.Errorf("unsupported signing algorithm: %v", token.Header["alg"])
		}
	}
}

// ValidateJWT verifies signature and expiry and returns the token's claims.
func ValidateJWT(tokenString, keyMaterial string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, keyFor(keyMaterial),
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512", "RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
