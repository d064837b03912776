package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	userTokenTTL  = 5 * time.Hour
	guestTokenTTL = 1 * time.Hour
)

var (
	ErrTokenInvalid   = errors.New("token is not valid")
	ErrTokenMalformed = errors.New("token is missing an identity claim")
)

// Principal is the authenticated identity derived from a token: either a
// registered user (UserID set) or a guest session.
type Principal struct {
	UserID  string
	IsGuest bool
}

// TokenIssuer signs and verifies the stateless session tokens. Validity is
// fully determined by signature and expiry, there is no session table.
type TokenIssuer struct {
	secret []byte
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret)}
}

// IssueUserToken returns a 5-hour token for a registered user.
func (t *TokenIssuer) IssueUserToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(userTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// IssueGuestToken returns a 1-hour token carrying no stored identity.
func (t *TokenIssuer) IssueGuestToken() (string, error) {
	claims := jwt.MapClaims{
		"guest": true,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(guestTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks signature and expiry and derives the principal. A token
// that verifies but carries neither a subject nor the guest flag is
// rejected as malformed.
func (t *TokenIssuer) Verify(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Principal{}, ErrTokenInvalid
	}

	if guest, ok := claims["guest"].(bool); ok && guest {
		return Principal{IsGuest: true}, nil
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Principal{}, ErrTokenMalformed
	}

	return Principal{UserID: sub}, nil
}
