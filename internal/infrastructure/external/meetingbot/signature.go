package meetingbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// webhookClaims is what the bot provider signs: a short-lived HS256 JWT in
// the Authorization header whose sha256 claim is the base64 digest of the
// request body. Verifying both proves origin and payload integrity.
type webhookClaims struct {
	Sha256 string `json:"sha256"`
	jwt.RegisteredClaims
}

// VerifyWebhook validates the provider's webhook signature against the raw
// request body.
func VerifyWebhook(body []byte, token, secret string) error {
	if token == "" {
		return fmt.Errorf("missing webhook signature")
	}

	var claims webhookClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("invalid webhook token: %w", err)
	}
	if !parsed.Valid {
		return fmt.Errorf("invalid webhook token")
	}

	sum := sha256.Sum256(body)
	expected := base64.StdEncoding.EncodeToString(sum[:])
	if !hmac.Equal([]byte(claims.Sha256), []byte(expected)) {
		return fmt.Errorf("webhook body digest mismatch")
	}
	return nil
}
