package auth

import (
	"testing"

	"pgregory.net/rapid"
)

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	t.Parallel()
	var hasher PasswordHasher = Argon2Hasher{}

	hash, err := hasher.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !hasher.VerifyPassword("correct horse", hash) {
		t.Fatal("VerifyPassword rejected the right password")
	}
	if hasher.VerifyPassword("wrong horse", hash) {
		t.Fatal("VerifyPassword accepted the wrong password")
	}

	again, err := hasher.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if again == hash {
		t.Fatal("hashes must be salted")
	}
}

func TestArgon2Hasher_RejectsMalformedHashes(t *testing.T) {
	t.Parallel()
	var hasher Argon2Hasher
	for _, encoded := range []string{
		"",
		"$fake$pw",
		"$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
	} {
		if hasher.VerifyPassword("pw", encoded) {
			t.Fatalf("accepted malformed hash %q", encoded)
		}
	}
}

// TestPassword_HashVerify_Roundtrip checks the PasswordHasher contract without Argon2 overhead.
func TestPassword_HashVerify_Roundtrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		var hasher PasswordHasher = FakeInsecureHasher{}
		password := rapid.StringN(1, 100, 200).Draw(t, "password")

		hash, err := hasher.HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if !hasher.VerifyPassword(password, hash) {
			t.Fatalf("VerifyPassword failed for password %q", password)
		}
	})
}

func TestPassword_WrongPassword_FailsVerify(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		var hasher PasswordHasher = FakeInsecureHasher{}
		password1 := rapid.StringN(1, 50, 100).Draw(t, "password1")
		password2 := rapid.StringN(1, 50, 100).Filter(func(s string) bool {
			return s != password1
		}).Draw(t, "password2")

		hash, err := hasher.HashPassword(password1)
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if hasher.VerifyPassword(password2, hash) {
			t.Fatalf("VerifyPassword accepted wrong password")
		}
	})
}
