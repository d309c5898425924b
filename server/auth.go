package server

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/zalando/go-keyring"
)

const (
	keyringService = "idbtap"
	keyringUser    = "server-token"
)

// LoadToken returns the stored server token, or "" when none is set.
func LoadToken() (string, error) {
	token, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read server token from keyring: %w", err)
	}
	return token, nil
}

// SaveToken stores token, generating a random one when token is empty, and
// returns what was stored.
func SaveToken(token string) (string, error) {
	if token == "" {
		token = uuid.NewString()
	}
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		return "", fmt.Errorf("failed to store server token in keyring: %w", err)
	}
	return token, nil
}

// ClearToken removes the stored token. Clearing an absent token succeeds.
func ClearToken() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete server token from keyring: %w", err)
	}
	return nil
}

// requestToken reads a bearer token from the Authorization header, or from
// the token query parameter for browsers opening a WebSocket.
func requestToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func authMiddleware(token string, next http.Handler) http.Handler {
	expected := []byte(token)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(requestToken(r)), expected) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
