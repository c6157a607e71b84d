package audit

import (
	"testing"
	"time"
)

func TestSigner_SignVerify(t *testing.T) {
	signer := NewSigner("test-secret")
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	sig := signer.Sign("signal-1", "fp-1", at)
	if sig == "" {
		t.Fatal("Sign() returned empty signature")
	}

	if !signer.Verify("signal-1", "fp-1", at, sig) {
		t.Error("Verify() should accept its own signature")
	}
	if signer.Verify("signal-2", "fp-1", at, sig) {
		t.Error("Verify() should reject a different signal ID")
	}
	if signer.Verify("signal-1", "fp-2", at, sig) {
		t.Error("Verify() should reject a different fingerprint")
	}
	if signer.Verify("signal-1", "fp-1", at.Add(time.Second), sig) {
		t.Error("Verify() should reject a different timestamp")
	}
	if NewSigner("other-secret").Verify("signal-1", "fp-1", at, sig) {
		t.Error("Verify() should reject signatures from another key")
	}
}

func TestSigner_SignBody(t *testing.T) {
	signer := NewSigner("webhook-secret")
	body := []byte(`{"id":123456}`)

	sig := signer.SignBody(body)
	if len(sig) != len("sha256=")+64 {
		t.Errorf("SignBody() = %q, want sha256= prefix plus 64 hex chars", sig)
	}

	if !signer.VerifyBody(body, sig) {
		t.Error("VerifyBody() should accept its own signature")
	}
	if signer.VerifyBody([]byte(`{"id":999}`), sig) {
		t.Error("VerifyBody() should reject a tampered body")
	}
	if signer.VerifyBody(body, "sha256=deadbeef") {
		t.Error("VerifyBody() should reject a forged signature")
	}
	if signer.VerifyBody(body, "") {
		t.Error("VerifyBody() should reject a missing signature")
	}
}
