package auth

import (
	"context"
	"testing"
	"time"

	"tripplanner/internal/config"
)

var testAuthConfig = config.AuthConfig{
	JWTSecretKey: "unit-test-secret",
	JWTExpiry:    time.Hour,
}

// mapBlacklist 是测试用的内存黑名单。
type mapBlacklist struct {
	revoked map[string]bool
}

func newMapBlacklist() *mapBlacklist {
	return &mapBlacklist{revoked: make(map[string]bool)}
}

func (m *mapBlacklist) Add(_ context.Context, jti string, _ time.Time) error {
	m.revoked[jti] = true
	return nil
}

func (m *mapBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], nil
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "alice", testAuthConfig)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(context.Background(), token, testAuthConfig.JWTSecretKey, newMapBlacklist())
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Errorf("claims = (%d, %q), want (42, alice)", claims.UserID, claims.Username)
	}
	if claims.ID == "" {
		t.Error("token issued without JTI")
	}
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	token, err := GenerateToken(42, "alice", testAuthConfig)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(context.Background(), token, "other-secret", newMapBlacklist()); err == nil {
		t.Error("token signed with different key accepted")
	}
}

func TestValidateTokenRejectsBlacklisted(t *testing.T) {
	token, err := GenerateToken(42, "alice", testAuthConfig)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	blacklist := newMapBlacklist()
	claims, err := ValidateToken(context.Background(), token, testAuthConfig.JWTSecretKey, blacklist)
	if err != nil {
		t.Fatalf("ValidateToken before revocation: %v", err)
	}
	if err := blacklist.Add(context.Background(), claims.ID, claims.ExpiresAt.Time); err != nil {
		t.Fatalf("blacklist.Add: %v", err)
	}

	if _, err := ValidateToken(context.Background(), token, testAuthConfig.JWTSecretKey, blacklist); err == nil {
		t.Error("revoked token accepted")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "correct horse" {
		t.Error("password stored in plain text")
	}
	if !CheckPasswordHash("correct horse", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("battery staple", hash) {
		t.Error("wrong password accepted")
	}
}
