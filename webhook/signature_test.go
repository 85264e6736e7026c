package webhook

import "testing"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	secret := "webhook-secret"
	header := SignBody(body, secret)

	if !VerifySignature(body, header, secret) {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestVerifySignatureMismatch(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	header := SignBody([]byte(`{"action":"closed"}`), "webhook-secret")

	if VerifySignature(body, header, "webhook-secret") {
		t.Fatalf("expected mismatched signature to fail")
	}
}

func TestVerifySignatureTamperedBody(t *testing.T) {
	body := []byte(`{"action":"opened"}`)
	header := SignBody(body, "webhook-secret")

	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-2] = 'x'
	if VerifySignature(tampered, header, "webhook-secret") {
		t.Fatalf("expected tampered body to fail verification")
	}
}

func TestVerifySignatureMissingHeader(t *testing.T) {
	if VerifySignature([]byte("{}"), "", "webhook-secret") {
		t.Fatalf("expected missing header to fail when a secret is set")
	}
}

func TestVerifySignatureMalformedHeader(t *testing.T) {
	if VerifySignature([]byte("{}"), "sha256=not-hex", "webhook-secret") {
		t.Fatalf("expected malformed header to fail")
	}
}

// TestVerifySignatureDisabled tests that an empty secret disables
// verification entirely.
func TestVerifySignatureDisabled(t *testing.T) {
	if !VerifySignature([]byte("{}"), "", "") {
		t.Fatalf("expected verification to pass with no secret configured")
	}
	if !VerifySignature([]byte("{}"), "sha256=deadbeef", "") {
		t.Fatalf("expected verification to ignore the header with no secret configured")
	}
}
