package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"crm-backend/internal/ports/auth"
)

var ErrInvalidToken = errors.New("invalid token")

// Issuer firma tokens HS256: access corto con los claims del frontend y
// refresh largo con solo el subject. Implementa identity.TokenIssuer.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) *Issuer {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (i *Issuer) IssueAccess(userID, email, role, teamID string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"role":  role,
		"team":  teamID,
		"iat":   now.Unix(),
		"exp":   now.Add(i.accessTTL).Unix(),
	})
	return token.SignedString(i.secret)
}

func (i *Issuer) IssueRefresh(userID string) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.refreshTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"typ": "refresh",
		"iat": now.Unix(),
		"exp": expires.Unix(),
	})
	signed, err := token.SignedString(i.secret)
	return signed, expires, err
}

func (i *Issuer) VerifyRefresh(tokenString string) (string, error) {
	claims, err := parseHS256(tokenString, i.secret)
	if err != nil {
		return "", err
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// Verifier implementa el port auth.AuthVerifier para los access tokens.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(_ context.Context, tokenString string) (auth.Claims, error) {
	claims, err := parseHS256(tokenString, v.secret)
	if err != nil {
		return auth.Claims{}, err
	}
	if typ, _ := claims["typ"].(string); typ == "refresh" {
		// un refresh no autoriza requests
		return auth.Claims{}, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if strings.TrimSpace(sub) == "" {
		return auth.Claims{}, ErrInvalidToken
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	team, _ := claims["team"].(string)

	return auth.Claims{
		UserID: sub,
		Email:  email,
		Role:   role,
		TeamID: team,
	}, nil
}

func parseHS256(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
