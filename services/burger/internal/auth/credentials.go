package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthenticated     = errors.New("authorization required")
	ErrMissingRefreshToken = errors.New("refresh token missing")
	ErrCredentialsNotFound = errors.New("credentials not found")
)

const bearerPrefix = "Bearer "

// Credentials is the token pair of the signed in user.
type Credentials struct {
	Session      string    `json:"session" bson:"_id"`
	AccessToken  string    `json:"access_token" bson:"access_token"`
	RefreshToken string    `json:"refresh_token" bson:"refresh_token"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// TokenPair is what the auth endpoints answer on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshError wraps any failure of the refresh flow.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// NormalizeAccessToken strips the "Bearer " prefix the auth endpoints put on
// access tokens.
func NormalizeAccessToken(token string) string {
	return strings.TrimPrefix(token, bearerPrefix)
}

// ExpiresAt reads the exp claim without verifying the signature. The token is
// issued and checked by the remote API; only its lifetime matters here.
func ExpiresAt(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := new(jwt.Parser).ParseUnverified(NormalizeAccessToken(token), jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// Expired reports whether token carries an exp claim that is past at now,
// allowing for leeway. Tokens without a readable exp are not expired.
func Expired(token string, now time.Time, leeway time.Duration) bool {
	exp, ok := ExpiresAt(token)
	if !ok {
		return false
	}
	return !now.Add(leeway).Before(exp)
}
