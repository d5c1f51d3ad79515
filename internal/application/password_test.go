package application

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	encoded, err := HashPassword("secreto123", DefaultHashParams)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected encoding: %s", encoded)
	}

	if err := VerifyPassword(encoded, "secreto123"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := VerifyPassword(encoded, "secreto124"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"wrong algorithm", "$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$a2V5"},
		{"missing sections", "$argon2id$v=19$m=65536,t=3,p=2"},
		{"bad salt encoding", "$argon2id$v=19$m=65536,t=3,p=2$!!$a2V5"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := VerifyPassword(tc.encoded, "secreto123"); !errors.Is(err, ErrMalformedPasswordHash) {
				t.Errorf("expected ErrMalformedPasswordHash, got %v", err)
			}
		})
	}
}

func TestVerifyPasswordVersionMismatch(t *testing.T) {
	err := VerifyPassword("$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$a2V5", "secreto123")
	if !errors.Is(err, ErrPasswordHashVersion) {
		t.Errorf("expected ErrPasswordHashVersion, got %v", err)
	}
}
