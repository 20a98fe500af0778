package password

import (
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	hashed, err := Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hashed, "$argon2id$") {
		t.Fatalf("unexpected hash format: %s", hashed)
	}

	if !Verify("correct horse battery staple", hashed) {
		t.Fatal("expected password to verify")
	}
	if Verify("wrong password", hashed) {
		t.Fatal("expected mismatch to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyRejectsMalformed(t *testing.T) {
	if Verify("anything", "not-a-hash") {
		t.Fatal("expected malformed hash to fail verification")
	}
}

func TestRandomPasswords(t *testing.T) {
	first, err := Random()
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	second, err := Random()
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	if first == "" || first == second {
		t.Fatalf("expected distinct non-empty passwords, got %q and %q", first, second)
	}
}
