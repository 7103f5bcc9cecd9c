package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rpattn/formexport/internal/domain"
)

// RoleAdmin may read and change export settings.
const RoleAdmin = "admin"

type Claims struct {
	AccountName string `json:"name"`
	Email       string `json:"email"`
	Langcode    string `json:"langcode,omitempty"`
	Role        string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Account maps the verified claims onto the requesting account. The subject is the account id.
func (c *Claims) Account() domain.Account {
	return domain.Account{
		ID:          c.Subject,
		AccountName: c.AccountName,
		Email:       c.Email,
		Langcode:    c.Langcode,
	}
}

func GenerateToken(secret string, account domain.Account, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountName: account.AccountName,
		Email:       account.Email,
		Langcode:    account.Langcode,
		Role:        role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateToken(secret, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
