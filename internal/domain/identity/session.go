package identity

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Session is what the dashboard trusts about a signed-in user.
type Session struct {
	UserID     uint
	Email      string
	Role       string
	CustomerID string
}

type sessionClaims struct {
	Email      string `json:"email"`
	Role       string `json:"role"`
	CustomerID string `json:"billing_customer_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 session token valid for ttl.
func IssueToken(secret []byte, s Session, ttl time.Duration, now time.Time) (string, error) {
	claims := sessionClaims{
		Email:      s.Email,
		Role:       s.Role,
		CustomerID: s.CustomerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(s.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func ParseToken(secret []byte, raw string) (*Session, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || claims.Email == "" {
		return nil, ErrInvalidSession
	}
	return &Session{
		UserID:     uint(id),
		Email:      claims.Email,
		Role:       claims.Role,
		CustomerID: claims.CustomerID,
	}, nil
}
