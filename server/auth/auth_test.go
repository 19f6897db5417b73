package auth

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T, opts Options) *Auth {
	t.Helper()
	a, err := NewAuth(t.TempDir(), opts)
	require.NoError(t, err)
	return a
}

func TestRegisterAndLogin(t *testing.T) {
	var hooked string
	a := newTestAuth(t, Options{OnRegister: func(id, name string) error {
		hooked = id
		return nil
	}})

	id, err := a.Register(RegisterReq{Username: " ada ", Password: "secret1", PasswordConfirm: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, id, hooked)

	_, err = a.Register(RegisterReq{Username: "ADA", Password: "secret1", PasswordConfirm: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = a.Login(LoginReq{Username: "ada", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := a.Login(LoginReq{Username: "ada", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, id, resp.UserID)

	who, err := a.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: id, Username: "ada"}, who)
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAuth(t, Options{})
	for _, req := range []RegisterReq{
		{Username: "", Password: "secret1", PasswordConfirm: "secret1"},
		{Username: "bob", Password: "short", PasswordConfirm: "short"},
		{Username: "bob", Password: "secret1", PasswordConfirm: "secret2"},
	} {
		_, err := a.Register(req)
		assert.ErrorIs(t, err, ErrInvalidRegistration)
	}
}

func TestRegisterHookFailureRollsBack(t *testing.T) {
	fail := true
	a := newTestAuth(t, Options{OnRegister: func(string, string) error {
		if fail {
			return errors.New("profile store down")
		}
		return nil
	}})
	req := RegisterReq{Username: "cy", Password: "secret1", PasswordConfirm: "secret1"}

	_, err := a.Register(req)
	require.Error(t, err)

	fail = false
	_, err = a.Register(req)
	assert.NoError(t, err)
}

func TestTokenExpiryAndIssuer(t *testing.T) {
	a := newTestAuth(t, Options{Issuer: "one", TokenTTL: time.Hour})
	now := time.Now()
	a.now = func() time.Time { return now }

	tok, err := a.IssueToken("u1", "ada")
	require.NoError(t, err)
	_, err = a.ParseToken(tok)
	require.NoError(t, err)

	a.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = a.ParseToken(tok)
	assert.Error(t, err)

	other := newTestAuth(t, Options{Issuer: "two"})
	other.jwtKey = a.jwtKey
	_, err = other.ParseToken(tok)
	assert.Error(t, err)
}

func TestRequireAuthStoresIdentity(t *testing.T) {
	a := newTestAuth(t, Options{})
	tok, err := a.IssueToken("u1", "ada")
	require.NoError(t, err)

	var got Identity
	h := a.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", got.UserID)

	req = httptest.NewRequest(http.MethodGet, "/ws?token="+tok, nil)
	assert.Equal(t, tok, TokenFromRequest(req))
}

func TestHandleRegisterStatusCodes(t *testing.T) {
	a := newTestAuth(t, Options{})
	post := func(body string) int {
		rec := httptest.NewRecorder()
		a.HandleRegister(rec, httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(body)))
		return rec.Code
	}
	assert.Equal(t, http.StatusBadRequest, post("{"))
	assert.Equal(t, http.StatusOK, post(`{"username":"ada","password":"secret1","password_confirm":"secret1"}`))
	assert.Equal(t, http.StatusConflict, post(`{"username":"ada","password":"secret1","password_confirm":"secret1"}`))
}
