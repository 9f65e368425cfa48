package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "X-Paystack-Signature"

// ComputeSignature returns hex(HMAC-SHA512(secret, body)). Paystack signs
// the raw request body, so callers must pass the bytes exactly as received.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
