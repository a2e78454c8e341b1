package password

import (
	"errors"
	"strings"
	"testing"
)

func fastArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2HashAndVerify(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}
	if !hasher.Identify(hash) {
		t.Fatal("expected hasher to identify its own output")
	}

	ok, err := hasher.Verify("P@ssw0rd-Ascii", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}

	ok, err = hasher.Verify("wrong-password", hash)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestArgon2AcceptsPaddedBase64(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := hasher.Hash("padded-encoding")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// 16-byte salt and 32-byte key gain "==" and "=" when padded.
	parts := strings.Split(hash, "$")
	parts[4] += "=="
	parts[5] += "="
	padded := strings.Join(parts, "$")

	ok, err := hasher.Verify("padded-encoding", padded)
	if err != nil || !ok {
		t.Fatalf("expected padded hash to verify: ok=%v err=%v", ok, err)
	}
}

func TestArgon2NeedsUpgrade(t *testing.T) {
	oldHasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2(old) error: %v", err)
	}
	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	stronger := fastArgon2Config()
	stronger.Time = 2
	newHasher, err := NewArgon2(stronger)
	if err != nil {
		t.Fatalf("NewArgon2(new) error: %v", err)
	}

	needsUpgrade, err := newHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if !needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return true for weaker hash parameters")
	}

	needsUpgrade, err = oldHasher.NeedsUpgrade(hash)
	if err != nil {
		t.Fatalf("NeedsUpgrade error: %v", err)
	}
	if needsUpgrade {
		t.Fatal("expected NeedsUpgrade to return false for current parameters")
	}
}

func TestArgon2VerifyMalformedHash(t *testing.T) {
	hasher, err := NewArgon2(fastArgon2Config())
	if err != nil {
		t.Fatalf("NewArgon2 error: %v", err)
	}
	hash, err := hasher.Hash("version-test")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cases := map[string]string{
		"not phc":       "not-a-phc-hash",
		"wrong version": strings.Replace(hash, "$v=19$", "$v=18$", 1),
		"bad params":    strings.Replace(hash, "m=8192,", "m=12,", 1),
		"bad salt":      strings.Replace(hash, "$v=19$m=8192,t=1,p=1$", "$v=19$m=8192,t=1,p=1$!!", 1),
	}
	for name, encoded := range cases {
		if _, err := hasher.Verify("version-test", encoded); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("%s: expected ErrMalformedHash, got %v", name, err)
		}
	}
}

func TestArgon2ConfigFloors(t *testing.T) {
	mutate := []func(*Argon2Config){
		func(c *Argon2Config) { c.Memory = 1024 },
		func(c *Argon2Config) { c.Time = 0 },
		func(c *Argon2Config) { c.Parallelism = 0 },
		func(c *Argon2Config) { c.SaltLength = 8 },
		func(c *Argon2Config) { c.KeyLength = 8 },
	}
	for i, m := range mutate {
		cfg := fastArgon2Config()
		m(&cfg)
		if _, err := NewArgon2(cfg); err == nil {
			t.Fatalf("case %d: expected config below floor to be rejected", i)
		}
	}
}
