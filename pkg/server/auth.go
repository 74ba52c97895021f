package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/matst80/slask-storefront/pkg/types"
)

const (
	tokenCookieName = "sf-token"
	tokenIssuer     = "slask-storefront"
)

var ErrUnauthorized = errors.New("unauthorized")

type Claims struct {
	AccountId int64        `json:"accountId"`
	Username  string       `json:"username"`
	Roles     []types.Role `json:"roles"`
	jwt.RegisteredClaims
}

// TokenAuth signs and verifies the HS512 account tokens sent as a bearer header or
// in the sf-token cookie.
type TokenAuth struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenAuth(secret string, ttl time.Duration) (*TokenAuth, error) {
	if secret == "" {
		return nil, errors.New("jwt secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenAuth{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (a *TokenAuth) CreateToken(acct types.Account) (string, error) {
	now := a.now()
	claims := Claims{
		AccountId: acct.Id,
		Username:  acct.Username,
		Roles:     acct.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(acct.Id, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (a *TokenAuth) Parse(tokenString string) (*types.Account, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !token.Valid || claims.AccountId <= 0 {
		return nil, ErrUnauthorized
	}
	return &types.Account{
		Id:       claims.AccountId,
		Username: claims.Username,
		Roles:    claims.Roles,
	}, nil
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, found := strings.CutPrefix(auth, "Bearer "); found {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (a *TokenAuth) FromRequest(r *http.Request) (*types.Account, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	return a.Parse(token)
}

type accountHandlerFunc = func(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder, acct *types.Account) error

// authorized resolves the calling account before fn runs, requests without a valid token
// are answered with 401.
func (ws *WebServer) authorized(fn accountHandlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, sessionId int, enc *json.Encoder) error {
		if ws.Auth == nil {
			return httpError(fmt.Errorf("%w: authentication is not configured", ErrUnauthorized))
		}
		acct, err := ws.Auth.FromRequest(r)
		if err != nil {
			return httpError(err)
		}
		return fn(w, r, sessionId, enc, acct)
	}
}
