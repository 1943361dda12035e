package security

import (
	"strings"
	"testing"
)

func TestFieldCipher_RoundTrip(t *testing.T) {
	cipher, err := NewFieldCipher("test-secret")
	if err != nil {
		t.Fatalf("NewFieldCipher failed: %v", err)
	}

	for _, plaintext := range []string{"smtp-password", "", "a", strings.Repeat("x", 1000), "héllo wörld"} {
		encrypted, err := cipher.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q) failed: %v", plaintext, err)
		}
		if !strings.Contains(encrypted, ":") {
			t.Errorf("Encrypt(%q) = %q, want iv:cipher form", plaintext, encrypted)
		}

		decrypted, err := cipher.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt failed: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip = %q, want %q", decrypted, plaintext)
		}
	}
}

func TestFieldCipher_EncryptIsRandomized(t *testing.T) {
	cipher, _ := NewFieldCipher("test-secret")

	a, _ := cipher.Encrypt("same value")
	b, _ := cipher.Encrypt("same value")
	if a == b {
		t.Error("two encryptions of the same value should differ (random IV)")
	}
}

func TestFieldCipher_DecryptPassthrough(t *testing.T) {
	cipher, _ := NewFieldCipher("test-secret")

	// Values written before encryption was enabled come back unchanged
	for _, plain := range []string{"plain-password", "no colons here", "bad:hex", "zz:zz"} {
		got, err := cipher.Decrypt(plain)
		if err != nil {
			t.Fatalf("Decrypt(%q) failed: %v", plain, err)
		}
		if got != plain {
			t.Errorf("Decrypt(%q) = %q, want passthrough", plain, got)
		}
	}
}

func TestFieldCipher_WrongKeyFails(t *testing.T) {
	a, _ := NewFieldCipher("secret-a")
	b, _ := NewFieldCipher("secret-b")

	encrypted, err := a.Encrypt("value")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	got, err := b.Decrypt(encrypted)
	if err == nil && got == "value" {
		t.Error("decryption with the wrong key should not recover the plaintext")
	}
}

func TestNewFieldCipher_RequiresSecret(t *testing.T) {
	if _, err := NewFieldCipher(""); err == nil {
		t.Error("empty secret should be rejected")
	}
}
