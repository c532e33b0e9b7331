package security

import (
	"strings"
	"testing"

	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
)

func testHasher(t *testing.T) *Hasher {
	t.Helper()

	// Small parameters keep tests fast while staying above validation floors.
	hasher, err := NewHasher(port.Argon2Params{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return hasher
}

func TestHashAndVerify(t *testing.T) {
	hasher := testHasher(t)

	encoded, err := hasher.Hash("Password@123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if !strings.HasPrefix(encoded, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	ok, err := hasher.Verify("Password@123", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = hasher.Verify("different", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatching password to fail verification")
	}
}

func TestHashIsSalted(t *testing.T) {
	hasher := testHasher(t)

	first, err := hasher.Hash("Password@123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := hasher.Hash("Password@123")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct hashes for the same password")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	hasher := testHasher(t)

	ok, err := hasher.Verify("", "anything")
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for empty password, got (%v, %v)", ok, err)
	}

	ok, err = hasher.Verify("password", "")
	if err != nil || ok {
		t.Fatalf("expected (false, nil) for empty hash, got (%v, %v)", ok, err)
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher := testHasher(t)

	cases := []string{
		"not-a-hash",
		"argon2id$v=19$m=8192,t=1,p=1$only-four-parts",
		"argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2hoYXNoaGFzaA",
	}

	for _, encoded := range cases {
		if _, err := hasher.Verify("password", encoded); err == nil {
			t.Fatalf("expected error for malformed hash %q", encoded)
		}
	}
}

func TestNewHasherRejectsWeakParams(t *testing.T) {
	_, err := NewHasher(port.Argon2Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  8,
		KeyLength:   16,
	})
	if err == nil {
		t.Fatal("expected error for sub-minimum memory")
	}
}
