// Package oauthtest provides a GitHub-compatible OAuth server for tests.
package oauthtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"vcontest/internal/app/oauth"
)

// MockServer is a GitHub-compatible provider for tests: ValidCode exchanges
// to ValidToken, which resolves to UserID.
type MockServer struct {
	*httptest.Server
	ValidCode  string
	ValidToken string
	UserID     int64
}

func NewMockServer(validCode, validToken string, userID int64) *MockServer {
	m := &MockServer{ValidCode: validCode, ValidToken: validToken, UserID: userID}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != m.ValidCode {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"bad_verification_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": m.ValidToken,
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+m.ValidToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{"id": m.UserID})
	})

	m.Server = httptest.NewServer(mux)
	return m
}

// Config points a provider at the mock server.
func (m *MockServer) Config() oauth.Config {
	return oauth.Config{
		ClientID:   "client",
		AuthURL:    m.URL + "/login/oauth/authorize",
		TokenURL:   m.URL + "/login/oauth/access_token",
		APIBaseURL: m.URL,
	}
}
