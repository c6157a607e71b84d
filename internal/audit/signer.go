package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Signer produces HMAC-SHA256 signatures over audit entries so the trail is
// tamper-evident during manual reconciliation.
type Signer struct {
	secretKey []byte
}

// NewSigner creates a signer with the given shared secret.
func NewSigner(secretKey string) *Signer {
	return &Signer{secretKey: []byte(secretKey)}
}

// Sign computes the signature for an entry's identity fields.
func (s *Signer) Sign(signalID, fingerprint string, at time.Time) string {
	payload := signalID + fingerprint + at.Format(time.RFC3339Nano)
	h := hmac.New(sha256.New, s.secretKey)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether signature matches the entry's identity fields.
func (s *Signer) Verify(signalID, fingerprint string, at time.Time, signature string) bool {
	expected := s.Sign(signalID, fingerprint, at)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SignBody computes the signature of a raw delivery body, in the
// "sha256=<hex>" form webhook senders attach to deliveries.
func (s *Signer) SignBody(body []byte) string {
	h := hmac.New(sha256.New, s.secretKey)
	h.Write(body)
	return "sha256=" + hex.EncodeToString(h.Sum(nil))
}

// VerifyBody checks a delivery signature header against the raw body.
func (s *Signer) VerifyBody(body []byte, signature string) bool {
	return hmac.Equal([]byte(s.SignBody(body)), []byte(signature))
}
