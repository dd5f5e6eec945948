package bybit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Signer handles Bybit V5 API authentication signatures
type Signer struct {
	apiKey     string
	secretKey  string
	recvWindow string
	now        func() time.Time
}

// NewSigner creates a new Signer instance
func NewSigner(apiKey, secretKey string, recvWindowMS int) *Signer {
	return &Signer{
		apiKey:     apiKey,
		secretKey:  secretKey,
		recvWindow: strconv.Itoa(recvWindowMS),
		now:        time.Now,
	}
}

// GenerateHeaders creates the necessary headers for a request.
// payload is the raw query string for GET and the JSON body for POST.
//
// Format: timestamp + apiKey + recvWindow + payload, HMAC-SHA256, hex encoded.
func (s *Signer) GenerateHeaders(payload string) map[string]string {
	// Bybit V5 Requirement: Unix Timestamp in Milliseconds
	timestamp := strconv.FormatInt(s.now().UnixMilli(), 10)

	sign := computeHmacSha256Hex(timestamp+s.apiKey+s.recvWindow+payload, s.secretKey)

	return map[string]string{
		"X-BAPI-API-KEY":     s.apiKey,
		"X-BAPI-SIGN":        sign,
		"X-BAPI-SIGN-TYPE":   "2",
		"X-BAPI-TIMESTAMP":   timestamp,
		"X-BAPI-RECV-WINDOW": s.recvWindow,
		"Content-Type":       "application/json",
	}
}

func computeHmacSha256Hex(message string, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}
