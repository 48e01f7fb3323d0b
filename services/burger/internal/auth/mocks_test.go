package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type MockTokenClient struct {
	mu sync.Mutex

	LoginFunc        func(ctx context.Context, email, password string) (TokenPair, error)
	LogoutFunc       func(ctx context.Context, refreshToken string) error
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (TokenPair, error)

	refreshCalls int
	logoutCalls  []string
}

func (m *MockTokenClient) Login(ctx context.Context, email, password string) (TokenPair, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return TokenPair{AccessToken: "Bearer access", RefreshToken: "refresh"}, nil
}

func (m *MockTokenClient) Logout(ctx context.Context, refreshToken string) error {
	m.mu.Lock()
	m.logoutCalls = append(m.logoutCalls, refreshToken)
	m.mu.Unlock()
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

func (m *MockTokenClient) RefreshToken(ctx context.Context, refreshToken string) (TokenPair, error) {
	m.mu.Lock()
	m.refreshCalls++
	m.mu.Unlock()
	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return TokenPair{AccessToken: "Bearer fresh", RefreshToken: "refresh-2"}, nil
}

func (m *MockTokenClient) RefreshCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("cannot sign token: %v", err)
	}
	return s
}
