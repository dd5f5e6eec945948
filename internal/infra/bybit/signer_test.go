package bybit

import (
	"testing"
	"time"
)

func TestSigner_GenerateHeaders(t *testing.T) {
	signer := NewSigner("key", "secret", 5000)
	signer.now = func() time.Time { return time.UnixMilli(1600000000000) }

	body := `{"symbol":"BTCUSDT"}`
	headers := signer.GenerateHeaders(body)

	if headers["X-BAPI-API-KEY"] != "key" {
		t.Errorf("Expected X-BAPI-API-KEY to be 'key', got %s", headers["X-BAPI-API-KEY"])
	}
	if headers["X-BAPI-TIMESTAMP"] != "1600000000000" {
		t.Errorf("Expected fixed timestamp, got %s", headers["X-BAPI-TIMESTAMP"])
	}
	if headers["X-BAPI-RECV-WINDOW"] != "5000" {
		t.Errorf("Expected recv window 5000, got %s", headers["X-BAPI-RECV-WINDOW"])
	}

	want := computeHmacSha256Hex("1600000000000key5000"+body, "secret")
	if headers["X-BAPI-SIGN"] != want {
		t.Errorf("Signature mismatch. Expected %s, got %s", want, headers["X-BAPI-SIGN"])
	}
}

func TestComputeHmacSha256Hex(t *testing.T) {
	// HMAC-SHA256("key", "The quick brown fox jumps over the lazy dog")
	expected := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	result := computeHmacSha256Hex("The quick brown fox jumps over the lazy dog", "key")

	if result != expected {
		t.Errorf("HMAC Mismatch. Expected %s, got %s", expected, result)
	}
}
