package service

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	token, claims, err := s.IssueGuest("  alice ")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims.ProfileID == "" || claims.Username != "alice" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	got, err := s.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.ProfileID != claims.ProfileID || got.Username != "alice" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestParseRejects(t *testing.T) {
	s := NewTokenService("secret", time.Hour)
	token, _, _ := s.Issue("p1", "bob")

	other := NewTokenService("other", time.Hour)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret accepted: %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token accepted: %v", err)
	}
	if _, err := s.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage accepted: %v", err)
	}
	if _, _, err := s.Issue("", "x"); err == nil {
		t.Fatal("empty profile id accepted")
	}
}
