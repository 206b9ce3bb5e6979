package service

import (
	"errors"
	"testing"
	"time"

	"skills-arena/internal/domain"
)

func TestJWT_RoundTrip(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	agent := domain.Agent{DID: "did:openclaw:abc123", Username: "ana"}

	token, err := svc.GenerateToken(agent)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.DID != agent.DID || claims.Subject != agent.DID {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Username != "ana" {
		t.Fatalf("username claim lost: %+v", claims)
	}
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Hour)
	verifier := NewJWTService("secret-b", time.Hour)

	token, err := issuer.GenerateToken(domain.Agent{DID: "did:openclaw:abc"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseToken(token); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWT_ExpiredRejected(t *testing.T) {
	svc := NewJWTService("secret", time.Nanosecond)

	token, err := svc.GenerateToken(domain.Agent{DID: "did:openclaw:abc"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWT_EmptySecret(t *testing.T) {
	svc := NewJWTService("", time.Hour)
	if _, err := svc.GenerateToken(domain.Agent{DID: "did:openclaw:abc"}); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid without secret, got %v", err)
	}
}

func TestJWT_GarbageToken(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)
	if _, err := svc.ParseToken("not-a-jwt"); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}
