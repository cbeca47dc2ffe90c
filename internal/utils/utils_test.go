package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "alice", "MEMBER", 15)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(tok.Exp) <= 14*time.Minute {
		t.Fatalf("unexpected expiry %v", tok.Exp)
	}
	claims, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	id, err := claims.MemberID()
	if err != nil || id != 42 || claims.Role != "MEMBER" || claims.Name != "alice" {
		t.Fatalf("claims %+v id=%d err=%v", claims, id, err)
	}
	if _, err := ParseAccessToken("other", tok.Token); err == nil {
		t.Fatal("wrong secret must fail")
	}
}

func TestParseRejectsExpiredAndForeignAlgorithms(t *testing.T) {
	expired, _ := NewAccessToken("s3cret", 1, "a", "MEMBER", -1)
	if _, err := ParseAccessToken("s3cret", expired.Token); err == nil {
		t.Fatal("expired token must fail")
	}
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "exp": time.Now().Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ParseAccessToken("s3cret", none); err == nil {
		t.Fatal("alg=none must fail")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("pw", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "pw") || VerifyPassword(hash, "nope") {
		t.Fatal("verify mismatch")
	}
}
