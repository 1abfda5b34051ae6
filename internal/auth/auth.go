// Package auth issues and verifies the platform's JWT pair and owns
// password hashing. Access tokens are short-lived; refresh tokens carry a
// distinct type claim so one can never stand in for the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	// TokenTypeAccess marks a token usable for API requests.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks a token usable only at the refresh mutation.
	TokenTypeRefresh = "refresh"

	accessTokenTTL  = time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour

	bcryptCost = 12
)

var (
	// ErrInvalidToken is returned for malformed, expired, or mistyped tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongPassword is returned when a password does not match its hash.
	ErrWrongPassword = errors.New("wrong password")
)

// Claims are the platform's JWT claims: a user id subject plus a token
// type discriminator.
type Claims struct {
	UserID    int64  `json:"uid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Issuer signs and verifies the platform's tokens with a shared HMAC key.
type Issuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewIssuer builds a token issuer. The issuer name is embedded in the
// iss claim and checked on verification.
func NewIssuer(secret []byte, issuer string) *Issuer {
	return &Issuer{secret: secret, issuer: issuer, now: time.Now}
}

// IssuePair mints an access and refresh token for the user.
func (i *Issuer) IssuePair(userID int64) (TokenPair, error) {
	access, err := i.mint(userID, TokenTypeAccess, accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.mint(userID, TokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (i *Issuer) mint(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and checks its signature, expiry, issuer, and
// type. It returns the authenticated user id.
func (i *Issuer) Verify(tokenString, expectedType string) (int64, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return i.now() }),
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.TokenType != expectedType {
		return 0, ErrInvalidToken
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword compares a candidate password against the stored hash.
func CheckPassword(hash []byte, password string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
