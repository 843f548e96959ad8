package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/bistrokit/bistro/pkg/models"
)

func testConfig() JWTConfig {
	return JWTConfig{
		Secret:               "test-secret-key-must-be-32-chars!",
		Issuer:               "bistro-test",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
	}
}

func TestNewJWTService_ValidConfig(t *testing.T) {
	service, err := NewJWTService(testConfig())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if service == nil {
		t.Fatal("Expected service to be non-nil")
	}
}

func TestNewJWTService_EmptySecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "", Issuer: "bistro-test"})
	if err == nil {
		t.Fatal("Expected error for empty secret")
	}
}

func TestNewJWTService_ShortSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{Secret: "short", Issuer: "bistro-test"})
	if err == nil {
		t.Fatal("Expected error for short secret")
	}
}

func TestGenerateTokenPair(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	user := &models.User{
		ID:       42,
		Username: "worker",
		Role:     models.RoleWorker,
	}

	tokenPair, err := service.GenerateTokenPair(user)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if tokenPair.AccessToken == "" {
		t.Error("Expected non-empty access token")
	}
	if tokenPair.RefreshToken == "" {
		t.Error("Expected non-empty refresh token")
	}
	if tokenPair.TokenType != "Bearer" {
		t.Errorf("Expected TokenType 'Bearer', got '%s'", tokenPair.TokenType)
	}
	if tokenPair.ExpiresIn != int64(15*time.Minute/time.Second) {
		t.Errorf("Expected ExpiresIn %d, got %d", int64(15*time.Minute/time.Second), tokenPair.ExpiresIn)
	}
}

func TestValidateAccessToken(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	user := &models.User{
		ID:       7,
		Username: "boss",
		Role:     models.RoleManager,
	}

	tokenPair, _ := service.GenerateTokenPair(user)

	claims, err := service.ValidateAccessToken(tokenPair.AccessToken)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if claims.Username != "boss" {
		t.Errorf("Expected username 'boss', got '%s'", claims.Username)
	}
	if claims.UserID != 7 {
		t.Errorf("Expected UserID 7, got %d", claims.UserID)
	}
	if claims.Role != string(models.RoleManager) {
		t.Errorf("Expected role 'MANAGER', got '%s'", claims.Role)
	}
	if !claims.IsManager() {
		t.Error("Expected IsManager() to return true")
	}
	if claims.Issuer != "bistro-test" {
		t.Errorf("Expected issuer 'bistro-test', got '%s'", claims.Issuer)
	}
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	_, err := service.ValidateAccessToken("invalid-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Expected ErrInvalidToken, got: %v", err)
	}
}

func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	otherCfg := testConfig()
	otherCfg.Issuer = "someone-else"
	other, _ := NewJWTService(otherCfg)

	tokenPair, _ := other.GenerateTokenPair(&models.User{ID: 1, Username: "worker", Role: models.RoleWorker})

	_, err := service.ValidateAccessToken(tokenPair.AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Expected ErrInvalidToken for wrong issuer, got: %v", err)
	}
}

func TestValidateAccessToken_WrongTokenType(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	tokenPair, _ := service.GenerateTokenPair(&models.User{ID: 1, Username: "worker", Role: models.RoleWorker})

	// Try to validate refresh token as access token
	_, err := service.ValidateAccessToken(tokenPair.RefreshToken)
	if !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("Expected ErrWrongTokenType, got: %v", err)
	}
}

func TestValidateAccessToken_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenDuration = -time.Minute
	service, _ := NewJWTService(cfg)

	tokenPair, err := service.GenerateTokenPair(&models.User{ID: 1, Username: "worker", Role: models.RoleWorker})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err = service.ValidateAccessToken(tokenPair.AccessToken)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Expected ErrInvalidToken for expired token, got: %v", err)
	}
}

func TestValidateRefreshToken(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	tokenPair, _ := service.GenerateTokenPair(&models.User{ID: 3, Username: "worker", Role: models.RoleWorker})

	claims, err := service.ValidateRefreshToken(tokenPair.RefreshToken)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if claims.Username != "worker" {
		t.Errorf("Expected username 'worker', got '%s'", claims.Username)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("Expected token type 'refresh', got '%s'", claims.TokenType)
	}
}

func TestValidateRefreshToken_WrongTokenType(t *testing.T) {
	service, _ := NewJWTService(testConfig())

	tokenPair, _ := service.GenerateTokenPair(&models.User{ID: 3, Username: "worker", Role: models.RoleWorker})

	// Try to validate access token as refresh token
	_, err := service.ValidateRefreshToken(tokenPair.AccessToken)
	if !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("Expected ErrWrongTokenType, got: %v", err)
	}
}

func TestClaims_IsManager(t *testing.T) {
	tests := []struct {
		role     string
		expected bool
	}{
		{"MANAGER", true},
		{"WORKER", false},
		{"MEMBER", false},
		{"", false},
		{"manager", false}, // Case-sensitive
	}

	for _, tc := range tests {
		claims := &Claims{Role: tc.role}
		if claims.IsManager() != tc.expected {
			t.Errorf("IsManager() for role '%s': expected %v, got %v", tc.role, tc.expected, claims.IsManager())
		}
	}
}
