package meetingbot

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signBody(t *testing.T, body []byte, secret string) string {
	t.Helper()
	sum := sha256.Sum256(body)
	claims := webhookClaims{
		Sha256: base64.StdEncoding.EncodeToString(sum[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

func TestVerifyWebhook_Valid(t *testing.T) {
	body := []byte(`{"bot_session_id":"abc","event_type":"bot.joined"}`)
	token := signBody(t, body, "secret")

	if err := VerifyWebhook(body, token, "secret"); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

func TestVerifyWebhook_WrongSecret(t *testing.T) {
	body := []byte(`{}`)
	token := signBody(t, body, "other-secret")

	if err := VerifyWebhook(body, token, "secret"); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestVerifyWebhook_TamperedBody(t *testing.T) {
	body := []byte(`{"event_type":"bot.joined"}`)
	token := signBody(t, body, "secret")

	if err := VerifyWebhook([]byte(`{"event_type":"bot.failed"}`), token, "secret"); err == nil {
		t.Fatal("expected digest mismatch")
	}
}

func TestVerifyWebhook_MissingToken(t *testing.T) {
	if err := VerifyWebhook([]byte(`{}`), "", "secret"); err == nil {
		t.Fatal("expected error for missing token")
	}
}
