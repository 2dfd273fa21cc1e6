package api

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

const (
	tokenIssuer = "blackmarket"
	tokenTTL    = 24 * time.Hour
)

var errBadToken = errors.New("missing or invalid game token")

// issueToken signs a token that grants play access to one game.
func (s *Server) issueToken(gameID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   gameID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// gameFromToken validates a token and returns the game it was issued for.
func (s *Server) gameFromToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadToken, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errBadToken
	}
	return claims.Subject, nil
}

// bearerToken reads the token from the Authorization header, falling back to
// the token query parameter for WebSocket clients.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// gameOnly wraps a handler to require a token issued for the {id} in the path.
func (s *Server) gameOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.gameFromToken(bearerToken(r))
		if err != nil {
			writeJSONStatus(w, http.StatusUnauthorized, errorBody{Error: errBadToken.Error()})
			return
		}
		if id != mux.Vars(r)["id"] {
			writeJSONStatus(w, http.StatusForbidden, errorBody{Error: "token belongs to another game"})
			return
		}
		next(w, r)
	}
}

// randomSecret makes a signing key for servers started without one. Tokens
// then die with the process.
func randomSecret() []byte {
	b := make([]byte, 32)
	rand.Read(b)
	return b
}
