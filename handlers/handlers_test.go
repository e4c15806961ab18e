package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"warbler/database/dbtest"
	"warbler/logger"
	"warbler/users"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPathID(t *testing.T) {
	tests := []struct {
		raw  string
		want uint
		ok   bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": tt.raw})
			got, ok := pathID(r, "id")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusConflict, "Username already taken")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusConflict), body["status"])
	assert.Equal(t, "Username already taken", body["error_msg"])
}

func TestSignupFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
		reason string
	}{
		{"username", users.ErrUsernameTaken, http.StatusConflict, "Username already taken", "username_taken"},
		{"email", users.ErrEmailTaken, http.StatusConflict, "Email already taken", "email_taken"},
		{"unknown column", users.ErrDuplicateUser, http.StatusConflict, "User already exists", "duplicate"},
		{"long password", users.ErrPasswordTooLong, http.StatusBadRequest, "Password must be at most 72 bytes", "password_too_long"},
		{"wrapped", fmt.Errorf("commit: %w", users.ErrEmailTaken), http.StatusConflict, "Email already taken", "email_taken"},
		{"store", errors.New("connection reset"), http.StatusInternalServerError, "Database error", "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg, reason := signupFailure(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestRequireLogin(t *testing.T) {
	db := dbtest.Open(t)
	dir := users.NewDirectory(db, bcrypt.MinCost, nil, logger.Discard())
	h := NewHandler(db, dir, nil, nil, sessions.NewCookieStore([]byte("k")), logger.Discard())

	u, err := dir.Register(t.Context(), "testuser", "test@test.com", "HASHED_PASSWORD", "")
	require.NoError(t, err)

	var seen uint
	protected := h.RequireLogin(func(w http.ResponseWriter, r *http.Request) {
		seen = currentUser(r).ID
	})

	rec := httptest.NewRecorder()
	protected(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Zero(t, seen)

	// Log in through a throwaway response and replay its cookie.
	loginRec := httptest.NewRecorder()
	require.NoError(t, h.login(loginRec, httptest.NewRequest(http.MethodPost, "/login", nil), u))
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	for _, c := range loginRec.Result().Cookies() {
		req.AddCookie(c)
	}

	rec = httptest.NewRecorder()
	protected(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, seen)
}
