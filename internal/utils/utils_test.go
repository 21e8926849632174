package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func TestSessionTokenRoundTrip(t *testing.T) {
	tok, err := NewSessionToken(testSecret, 42, "admin", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSessionToken: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}
	if d := time.Until(tok.Exp); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("expiry %v not about one day away", d)
	}

	claims, err := ParseSessionToken(testSecret, tok.Token)
	if err != nil {
		t.Fatalf("ParseSessionToken: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseSessionTokenRejects(t *testing.T) {
	valid, err := NewSessionToken(testSecret, 7, "user", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, err := NewSessionToken(testSecret, 7, "user", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	other, err := NewSessionToken(testSecret, 8, "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	vp, op := strings.Split(valid.Token, "."), strings.Split(other.Token, ".")
	spliced := vp[0] + "." + op[1] + "." + vp[2]

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": 7, "role": "user"})
	noExpRaw, err := noExp.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	noneAlg := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": 7, "role": "admin", "exp": time.Now().Add(time.Hour).Unix(),
	})
	noneRaw, err := noneAlg.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		secret string
		raw    string
	}{
		{"wrong secret", "other-secret", valid.Token},
		{"expired", testSecret, expired.Token},
		{"malformed", testSecret, "not.a.jwt"},
		{"empty", testSecret, ""},
		{"tampered payload", testSecret, spliced},
		{"missing expiry", testSecret, noExpRaw},
		{"alg none", testSecret, noneRaw},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSessionToken(tt.secret, tt.raw)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret1", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("hash %q does not look like bcrypt", hash)
	}
	if !VerifyPassword(hash, "secret1") {
		t.Error("VerifyPassword rejected the right password")
	}
	if VerifyPassword(hash, "secret2") {
		t.Error("VerifyPassword accepted a wrong password")
	}
}

func TestBurnPasswordCheckDoesNotPanic(t *testing.T) {
	BurnPasswordCheck("anything")
	BurnPasswordCheck("")
}
