// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendia/auth-service/internal/auth"
	"github.com/agendia/auth-service/internal/platform/constants"
	"github.com/agendia/auth-service/internal/platform/middleware"
)

// # HTTP Harness

// httpHarness mounts the auth routes behind the bearer middleware exactly the
// way the server wires them, backed by the in-memory stores.
type httpHarness struct {
	*harness
	router chi.Router
}

func newHTTPHarness(t *testing.T) *httpHarness {
	t.Helper()

	h := newHarness(t)
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(h.tokens))
	router.Mount("/api/v1/auth", auth.NewHandler(h.service).Routes())

	return &httpHarness{harness: h, router: router}
}

// do executes one JSON request against the in-memory router.
func (h *httpHarness) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	for _, fn := range mutate {
		fn(request)
	}

	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, request)
	return recorder
}

// withBearer attaches an Authorization header.
func withBearer(token string) func(*http.Request) {
	return func(request *http.Request) {
		request.Header.Set(constants.HeaderAuthorization, constants.AuthSchemeBearer+" "+token)
	}
}

// withRefreshCookie attaches the refresh secret as the HttpOnly cookie.
func withRefreshCookie(secret string) func(*http.Request) {
	return func(request *http.Request) {
		request.AddCookie(&http.Cookie{Name: constants.RefreshTokenCookieName, Value: secret})
	}
}

// decodeData unmarshals the success envelope's data field into target.
func decodeData(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

// decodeErrorCode returns the code field of the error envelope.
func decodeErrorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Code
}

// registerAndLogin provisions an account over HTTP and returns the parsed
// login payload plus the refresh cookie the server set.
func (h *httpHarness) registerAndLogin(t *testing.T, email string) (map[string]json.RawMessage, *http.Cookie) {
	t.Helper()

	recorder := h.do(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email": email, "password": "longpass1", "first_name": "Ana", "last_name": "García",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = h.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": email, "password": "longpass1",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var payload map[string]json.RawMessage
	decodeData(t, recorder, &payload)

	var cookie *http.Cookie
	for _, c := range recorder.Result().Cookies() {
		if c.Name == constants.RefreshTokenCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the refresh cookie")
	return payload, cookie
}

func rawString(t *testing.T, payload map[string]json.RawMessage, field string) string {
	t.Helper()
	var value string
	require.NoError(t, json.Unmarshal(payload[field], &value))
	return value
}

// # Registration & Login

/*
TestHTTP_Register verifies the 201 contract and that the password digest
never leaks through serialization.
*/
func TestHTTP_Register(t *testing.T) {
	h := newHTTPHarness(t)

	recorder := h.do(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email": "ana@agendia.app", "password": "longpass1",
		"first_name": "Ana", "last_name": "García",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var profile map[string]any
	decodeData(t, recorder, &profile)
	assert.Equal(t, "ana@agendia.app", profile["email"])
	assert.NotContains(t, profile, "password_hash")
	assert.NotContains(t, recorder.Body.String(), "longpass1")
}

/*
TestHTTP_Register_Validation verifies field-level rejection with the
validation envelope.
*/
func TestHTTP_Register_Validation(t *testing.T) {
	h := newHTTPHarness(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing_email", map[string]any{"password": "longpass1", "first_name": "Ana", "last_name": "García"}},
		{"bad_email", map[string]any{"email": "not-an-email", "password": "longpass1", "first_name": "Ana", "last_name": "García"}},
		{"short_password", map[string]any{"email": "a@x.com", "password": "short", "first_name": "Ana", "last_name": "García"}},
		{"missing_names", map[string]any{"email": "a@x.com", "password": "longpass1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := h.do(t, http.MethodPost, "/api/v1/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, recorder))
		})
	}
}

/*
TestHTTP_Register_Conflict verifies the 409 classification for duplicates.
*/
func TestHTTP_Register_Conflict(t *testing.T) {
	h := newHTTPHarness(t)
	h.registerAndLogin(t, "ana@agendia.app")

	recorder := h.do(t, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email": "Ana@Agendia.App", "password": "longpass2",
		"first_name": "Eva", "last_name": "Marín",
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, "EMAIL_TAKEN", decodeErrorCode(t, recorder))
}

/*
TestHTTP_Login verifies the token payload and the HttpOnly cookie contract.
*/
func TestHTTP_Login(t *testing.T) {
	h := newHTTPHarness(t)
	payload, cookie := h.registerAndLogin(t, "ana@agendia.app")

	assert.NotEmpty(t, rawString(t, payload, auth.FieldAccessToken))
	assert.Equal(t, constants.AuthSchemeBearer, rawString(t, payload, auth.FieldTokenType))

	var expiresIn int64
	require.NoError(t, json.Unmarshal(payload[auth.FieldExpiresIn], &expiresIn))
	assert.Equal(t, int64(time.Hour/time.Second), expiresIn)

	// Cookie: scoped, HttpOnly, strict, carries the same secret as the body.
	assert.Equal(t, constants.RefreshTokenCookiePath, cookie.Path)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, rawString(t, payload, auth.FieldRefreshToken), cookie.Value)
}

/*
TestHTTP_Login_InvalidCredentials verifies the uniform 401.
*/
func TestHTTP_Login_InvalidCredentials(t *testing.T) {
	h := newHTTPHarness(t)
	h.registerAndLogin(t, "ana@agendia.app")

	recorder := h.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "ana@agendia.app", "password": "wrongpass",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeErrorCode(t, recorder))
}

// # Refresh & Logout

/*
TestHTTP_Refresh verifies both transport paths for the refresh secret:
the HttpOnly cookie and the JSON body fallback.
*/
func TestHTTP_Refresh(t *testing.T) {
	h := newHTTPHarness(t)
	payload, cookie := h.registerAndLogin(t, "ana@agendia.app")

	t.Run("via_cookie", func(t *testing.T) {
		recorder := h.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, withRefreshCookie(cookie.Value))
		require.Equal(t, http.StatusOK, recorder.Code)

		var refreshed map[string]json.RawMessage
		decodeData(t, recorder, &refreshed)
		assert.NotEmpty(t, rawString(t, refreshed, auth.FieldAccessToken))
	})

	t.Run("via_body", func(t *testing.T) {
		recorder := h.do(t, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
			"refresh_token": rawString(t, payload, auth.FieldRefreshToken),
		})
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("missing_secret", func(t *testing.T) {
		recorder := h.do(t, http.MethodPost, "/api/v1/auth/refresh", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "REFRESH_TOKEN_INVALID", decodeErrorCode(t, recorder))
	})

	t.Run("garbage_secret", func(t *testing.T) {
		recorder := h.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, withRefreshCookie("not-a-real-secret"))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "REFRESH_TOKEN_INVALID", decodeErrorCode(t, recorder))
	})
}

/*
TestHTTP_Logout verifies the 204, the cookie teardown, and that the revoked
secret stops refreshing.
*/
func TestHTTP_Logout(t *testing.T) {
	h := newHTTPHarness(t)
	_, cookie := h.registerAndLogin(t, "ana@agendia.app")

	recorder := h.do(t, http.MethodPost, "/api/v1/auth/logout", nil, withRefreshCookie(cookie.Value))
	require.Equal(t, http.StatusNoContent, recorder.Code)

	// The server must expire the cookie on the client.
	cleared := recorder.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, constants.RefreshTokenCookieName, cleared[0].Name)
	assert.Negative(t, cleared[0].MaxAge)

	recorder = h.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, withRefreshCookie(cookie.Value))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

// # Protected Endpoints

/*
TestHTTP_Me verifies the bearer-protected profile endpoint.
*/
func TestHTTP_Me(t *testing.T) {
	h := newHTTPHarness(t)
	payload, _ := h.registerAndLogin(t, "ana@agendia.app")
	accessToken := rawString(t, payload, auth.FieldAccessToken)

	t.Run("authenticated", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/v1/auth/me", nil, withBearer(accessToken))
		require.Equal(t, http.StatusOK, recorder.Code)

		var profile map[string]any
		decodeData(t, recorder, &profile)
		assert.Equal(t, "ana@agendia.app", profile["email"])
	})

	t.Run("anonymous", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/v1/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "TOKEN_INVALID", decodeErrorCode(t, recorder))
	})

	t.Run("garbage_token", func(t *testing.T) {
		recorder := h.do(t, http.MethodGet, "/api/v1/auth/me", nil, withBearer("not.a.jwt"))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "TOKEN_INVALID", decodeErrorCode(t, recorder))
	})
}

/*
TestHTTP_Sessions verifies listing and targeted revocation, including the
ownership and format failure modes.
*/
func TestHTTP_Sessions(t *testing.T) {
	h := newHTTPHarness(t)
	payload, _ := h.registerAndLogin(t, "ana@agendia.app")
	accessToken := rawString(t, payload, auth.FieldAccessToken)

	intruderPayload, _ := h.registerAndLogin(t, "eva@agendia.app")
	intruderToken := rawString(t, intruderPayload, auth.FieldAccessToken)

	recorder := h.do(t, http.MethodGet, "/api/v1/auth/sessions", nil, withBearer(accessToken))
	require.Equal(t, http.StatusOK, recorder.Code)

	var sessions []map[string]any
	decodeData(t, recorder, &sessions)
	require.Len(t, sessions, 1)
	assert.NotContains(t, sessions[0], "token_hash")
	sessionID := sessions[0]["id"].(string)

	t.Run("malformed_id", func(t *testing.T) {
		recorder := h.do(t, http.MethodDelete, "/api/v1/auth/sessions/not-a-uuid", nil, withBearer(accessToken))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, recorder))
	})

	t.Run("unknown_id", func(t *testing.T) {
		recorder := h.do(t, http.MethodDelete, "/api/v1/auth/sessions/0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", nil, withBearer(accessToken))
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "SESSION_NOT_FOUND", decodeErrorCode(t, recorder))
	})

	t.Run("foreign_session", func(t *testing.T) {
		recorder := h.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/auth/sessions/%s", sessionID), nil, withBearer(intruderToken))
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		assert.Equal(t, "SESSION_FORBIDDEN", decodeErrorCode(t, recorder))
	})

	t.Run("owner_revokes", func(t *testing.T) {
		recorder := h.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/auth/sessions/%s", sessionID), nil, withBearer(accessToken))
		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})
}

/*
TestHTTP_LogoutAll verifies the bulk revocation endpoint.
*/
func TestHTTP_LogoutAll(t *testing.T) {
	h := newHTTPHarness(t)
	payload, cookie := h.registerAndLogin(t, "ana@agendia.app")
	accessToken := rawString(t, payload, auth.FieldAccessToken)

	recorder := h.do(t, http.MethodPost, "/api/v1/auth/logout-all", nil, withBearer(accessToken))
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = h.do(t, http.MethodGet, "/api/v1/auth/sessions", nil, withBearer(accessToken))
	require.Equal(t, http.StatusOK, recorder.Code)
	var sessions []map[string]any
	decodeData(t, recorder, &sessions)
	assert.Empty(t, sessions)

	recorder = h.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, withRefreshCookie(cookie.Value))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHTTP_DeleteAccount verifies the account teardown endpoint and the
lockout that follows: the still-valid access token no longer resolves.
*/
func TestHTTP_DeleteAccount(t *testing.T) {
	h := newHTTPHarness(t)
	payload, _ := h.registerAndLogin(t, "ana@agendia.app")
	accessToken := rawString(t, payload, auth.FieldAccessToken)

	recorder := h.do(t, http.MethodDelete, "/api/v1/auth/account", nil, withBearer(accessToken))
	require.Equal(t, http.StatusNoContent, recorder.Code)

	recorder = h.do(t, http.MethodGet, "/api/v1/auth/me", nil, withBearer(accessToken))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "ACCOUNT_DELETED", decodeErrorCode(t, recorder))

	recorder = h.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "ana@agendia.app", "password": "longpass1",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "ACCOUNT_DELETED", decodeErrorCode(t, recorder))
}
