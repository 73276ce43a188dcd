package crypto

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected configured service")
	}
	cipher, err := svc.Encrypt([]byte("improve stakeholder communication"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if string(cipher) == "improve stakeholder communication" {
		t.Fatal("expected ciphertext to differ from plaintext")
	}
	plain, err := svc.Decrypt(cipher)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(plain) != "improve stakeholder communication" {
		t.Fatalf("unexpected plaintext %q", plain)
	}
}

func TestUnconfiguredServicePassesThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	out, err := svc.Encrypt([]byte("plan"))
	if err != nil || string(out) != "plan" {
		t.Fatalf("expected passthrough, got %q %v", out, err)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected key length error")
	}
}

func TestSealAndOpenJSON(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	type content struct {
		Summary string `json:"summary"`
	}
	sealed, err := svc.SealJSON(content{Summary: "lead the budget review"})
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	var out content
	if err := svc.OpenJSON(sealed, &out); err != nil {
		t.Fatalf("open: %v", err)
	}
	if out.Summary != "lead the budget review" {
		t.Fatalf("unexpected content %+v", out)
	}

	var legacy content
	if err := svc.OpenJSON([]byte(`{"summary":"plain"}`), &legacy); err != nil || legacy.Summary != "plain" {
		t.Fatalf("expected plaintext JSON to decode, got %+v %v", legacy, err)
	}

	plain, _ := New("")
	if err := plain.OpenJSON(sealed, &out); err == nil {
		t.Fatal("expected error opening sealed value without key")
	}
}
