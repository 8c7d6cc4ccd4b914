package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Sign returns the base64 HMAC-SHA256 of body keyed by secret, the format the
// platform sends in the signature header.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares header to the expected signature of body in
// constant time. Headers of the wrong length are rejected before comparing.
func VerifySignature(body []byte, header, secret string) bool {
	if header == "" {
		return false
	}
	expected := []byte(Sign(body, secret))
	got := []byte(header)
	if len(got) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare(got, expected) == 1
}
