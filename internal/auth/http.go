// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agendia/auth-service/internal/platform/constants"
	"github.com/agendia/auth-service/internal/platform/middleware"
	requestutil "github.com/agendia/auth-service/internal/platform/request"
	"github.com/agendia/auth-service/internal/platform/respond"
	"github.com/agendia/auth-service/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// This layer is strictly responsible for transport concerns (status codes,
// cookies, JSON). Every security decision lives in [Service].
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with the authentication routes.
//
// # Endpoints
//   - POST   /register             : Creates a new account.
//   - POST   /login                : Authenticates and returns tokens.
//   - POST   /refresh              : Exchanges a refresh secret for a new access token.
//   - POST   /logout               : Revokes the presented session.
//   - GET    /me                   : Returns the authenticated profile.
//   - GET    /sessions             : Lists the account's sessions.
//   - DELETE /sessions/{sessionID} : Revokes one named session.
//   - POST   /logout-all           : Revokes every session of the account.
//   - DELETE /account              : Soft-deletes the account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints (refresh/logout authenticate via the refresh secret itself)
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	// Protected endpoints (bearer token)
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Get("/me", handler.me)
		r.Get("/sessions", handler.listSessions)
		r.Delete("/sessions/{sessionID}", handler.deleteSession)
		r.Post("/logout-all", handler.logoutAll)
		r.Delete("/account", handler.deleteAccount)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email     string  `json:"email"`
	Alias     *string `json:"alias,omitempty"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Language  string  `json:"language,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest is the body fallback for non-browser clients that cannot
// carry the HttpOnly cookie.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// # Account Endpoints

/*
register handles the creation of a new account.

POST /api/v1/auth/register

Description: Validates input, hashes the password, and persists the account.
Email/alias conflicts surface as EMAIL_TAKEN / ALIAS_TAKEN.

Request:
  - Body: registerRequest (Email, Alias?, Password, FirstName, LastName)

Response:
  - 201: User: Created account profile
  - 400: VALIDATION_ERROR: Bad input
  - 409: EMAIL_TAKEN / ALIAS_TAKEN: Identity conflict
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength).
		MaxLen(FieldPassword, input.Password, PasswordMaxLength).
		Required(FieldFirstName, input.FirstName).
		MaxLen(FieldFirstName, input.FirstName, NameMaxLength).
		Required(FieldLastName, input.LastName).
		MaxLen(FieldLastName, input.LastName, NameMaxLength)

	if input.Alias != nil {
		validator.MaxLen(FieldAlias, *input.Alias, AliasMaxLength)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:     input.Email,
		Alias:     input.Alias,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Language:  input.Language,
		Timezone:  input.Timezone,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
login authenticates an account and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, mints the access token, and injects the
refresh secret as a secure HttpOnly cookie. The secret also travels in the
body for non-browser clients; it is shown exactly once.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Access token, refresh token, and profile
  - 401: INVALID_CREDENTIALS / ACCOUNT_DELETED
  - 429: RATE_LIMITED: Failed-attempt budget exhausted
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenExpiresAt)

	respond.OK(writer, map[string]any{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		FieldTokenType:    constants.AuthSchemeBearer,
		FieldExpiresIn:    int64(handler.authService.AccessTokenTTL() / time.Second),
		FieldUser:         session.User,
	})
}

// # Session Endpoints

/*
refresh issues a new access token for a valid refresh secret.

POST /api/v1/auth/refresh

Description: Validates the presented secret (cookie first, body fallback)
and mints a fresh access token. The secret itself is not rotated — the same
cookie keeps working until logout or expiry.

Response:
  - 200: New access token credentials
  - 401: REFRESH_TOKEN_INVALID / REFRESH_TOKEN_EXPIRED / ACCOUNT_DELETED
  - 403: ACCOUNT_INACTIVE
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	rawSecret, err := refreshSecretFrom(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Refresh(request.Context(), rawSecret)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken: session.AccessToken,
		FieldTokenType:   constants.AuthSchemeBearer,
		FieldExpiresIn:   int64(handler.authService.AccessTokenTTL() / time.Second),
	})
}

/*
logout revokes the session identified by the presented refresh secret.

POST /api/v1/auth/logout

Description: Runs the same validation as refresh, deletes the session row,
and clears the cookie. An unknown or expired secret is a classified failure,
not a silent success — the cookie is cleared either way.

Response:
  - 204: No Content: Session revoked
  - 401: REFRESH_TOKEN_INVALID / REFRESH_TOKEN_EXPIRED / ACCOUNT_DELETED
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	rawSecret, err := refreshSecretFrom(request)
	if err != nil {
		clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.Logout(request.Context(), rawSecret)
	clearRefreshCookie(writer)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
me returns the authenticated account's profile.

GET /api/v1/auth/me

Response:
  - 200: User: Profile (password hash never serialized)
  - 401: TOKEN_INVALID / TOKEN_EXPIRED / ACCOUNT_DELETED
  - 403: ACCOUNT_INACTIVE
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.CurrentUser(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
listSessions lists the account's sessions, newest first.

GET /api/v1/auth/sessions

Response:
  - 200: []Session: Session metadata (digests omitted)
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.authService.ListSessions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

/*
deleteSession revokes one named session owned by the account.

DELETE /api/v1/auth/sessions/{sessionID}

Response:
  - 204: No Content: Session revoked
  - 404: SESSION_NOT_FOUND
  - 403: SESSION_FORBIDDEN: Session belongs to another account
*/
func (handler *Handler) deleteSession(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := requestutil.Param(request, FieldSessionID)

	validator := &validate.Validator{}
	validator.Required(FieldSessionID, sessionID).UUID(FieldSessionID, sessionID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.DeleteSession(request.Context(), userID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
logoutAll revokes every session belonging to the account.

POST /api/v1/auth/logout-all

Response:
  - 204: No Content: All sessions revoked
*/
func (handler *Handler) logoutAll(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.LogoutAll(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
deleteAccount soft-deletes the account and revokes all of its sessions.

DELETE /api/v1/auth/account

Response:
  - 204: No Content: Account deleted
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearRefreshCookie(writer)
	respond.NoContent(writer)
}

// # Cookie & Secret Helpers

// refreshSecretFrom extracts the refresh secret: HttpOnly cookie first, then
// the JSON body fallback for non-browser clients.
func refreshSecretFrom(request *http.Request) (string, error) {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err == nil && input.RefreshToken != "" {
		return input.RefreshToken, nil
	}

	return "", ErrRefreshTokenInvalid
}

// setRefreshCookie installs the refresh secret as a secure HttpOnly cookie
// scoped to the auth path.
func setRefreshCookie(writer http.ResponseWriter, secret string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    secret,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh cookie on the client.
func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
