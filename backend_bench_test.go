package credcore

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newBenchmarkBackend(b *testing.B) *TokenBackend {
	b.Helper()
	cfg := DefaultConfig()
	cfg.Auth.SecretKey = "benchmark-secret-benchmark-secret"
	cfg.Password.BcryptCost = bcrypt.MinCost
	backend, err := New().WithConfig(cfg).Build()
	if err != nil {
		b.Fatalf("build failed: %v", err)
	}
	return backend
}

func BenchmarkCreateAccessToken(b *testing.B) {
	backend := newBenchmarkBackend(b)
	data := TokenData{Subject: "u1", Scopes: Scopes{"read", "write"}}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := backend.CreateAccessToken(data); err != nil {
			b.Fatalf("create failed: %v", err)
		}
	}
}

func BenchmarkFetchData(b *testing.B) {
	backend := newBenchmarkBackend(b)
	tok, err := backend.CreateAccessToken(TokenData{Subject: "u1", Scopes: Scopes{"read"}})
	if err != nil {
		b.Fatalf("create failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := backend.FetchData(tok.AccessToken); err != nil {
			b.Fatalf("fetch failed: %v", err)
		}
	}
}

func BenchmarkFetchDataParallel(b *testing.B) {
	backend := newBenchmarkBackend(b)
	tok, err := backend.CreateAccessToken(TokenData{Subject: "u1"})
	if err != nil {
		b.Fatalf("create failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := backend.FetchData(tok.AccessToken); err != nil {
				b.Errorf("fetch failed: %v", err)
				return
			}
		}
	})
}

func BenchmarkVerifyPasswordMinCost(b *testing.B) {
	backend := newBenchmarkBackend(b)
	hashed, err := backend.CreatePasswordHash("correct-password-123")
	if err != nil {
		b.Fatalf("hash failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if ok, err := backend.Verify("correct-password-123", hashed); !ok || err != nil {
			b.Fatalf("verify failed: ok=%v err=%v", ok, err)
		}
	}
}
