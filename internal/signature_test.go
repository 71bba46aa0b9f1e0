package internal

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"testing"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// TestVerifyValidSignature tests that a correctly signed body verifies.
func TestVerifyValidSignature(t *testing.T) {
	secret := "topsecret"
	body := []byte(`{"action":"opened"}`)

	verifier := NewVerifier(secret, nil)
	if err := verifier.Verify(body, signBody(secret, body)); err != nil {
		t.Fatalf("expected valid signature, got %v", err)
	}
}

// TestVerifyMutatedBody tests that any single-bit change in the body rejects.
func TestVerifyMutatedBody(t *testing.T) {
	secret := "topsecret"
	body := []byte(`{"action":"opened"}`)
	header := signBody(secret, body)

	verifier := NewVerifier(secret, nil)
	for i := range body {
		mutated := append([]byte(nil), body...)
		mutated[i] ^= 0x01
		if err := verifier.Verify(mutated, header); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("byte %d: expected ErrInvalidSignature, got %v", i, err)
		}
	}
}

// TestVerifyMutatedSignature tests that a corrupted signature header rejects.
func TestVerifyMutatedSignature(t *testing.T) {
	secret := "topsecret"
	body := []byte(`{"action":"opened"}`)
	header := signBody(secret, body)

	flipped := []byte(header)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}

	verifier := NewVerifier(secret, nil)
	if err := verifier.Verify(body, string(flipped)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

// TestVerifyMissingHeader tests that a configured secret requires the header.
func TestVerifyMissingHeader(t *testing.T) {
	verifier := NewVerifier("topsecret", nil)
	if err := verifier.Verify([]byte("{}"), ""); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

// TestVerifyNoSecretFailOpen tests that verification is skipped with a
// warning when no secret is configured.
func TestVerifyNoSecretFailOpen(t *testing.T) {
	var buf bytes.Buffer
	verifier := NewVerifier("", log.New(&buf, "", 0))

	if err := verifier.Verify([]byte("{}"), ""); err != nil {
		t.Fatalf("expected fail-open, got %v", err)
	}
	if !strings.Contains(buf.String(), "skipping webhook signature verification") {
		t.Fatalf("expected skip warning, got %q", buf.String())
	}
}
