// Copyright (c) 2026 Agendia. All rights reserved.
// Author: platform@agendia.dev

package middleware

import (
	"net/http"
	"strings"

	"github.com/agendia/auth-service/internal/platform/constants"
	"github.com/agendia/auth-service/internal/platform/ctxutil"
	"github.com/agendia/auth-service/internal/platform/sec"
)

// # Authentication & Authorization

// TokenVerifier defines the behavior required to validate access tokens.
// Implemented by [sec.TokenService].
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}

// Authenticate parses the Authorization header if present and injects the
// verified claims into the request context.
//
// It does NOT reject unauthenticated requests — that is [RequireAuth]'s job.
// This split lets public endpoints still personalize behavior for logged-in
// callers while protected endpoints stack both middlewares.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Extract the bearer token (if any)
			authHeader := request.Header.Get(constants.HeaderAuthorization)
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], constants.AuthSchemeBearer) {
				writeError(writer, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid Authorization header format")
				return
			}

			// 2. Verify the signature and standard claims
			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				// A malformed or expired token on an optional-auth route is still
				// a hard failure: silently ignoring it would mask client bugs.
				code := "TOKEN_INVALID"
				message := "Invalid access token"
				if sec.IsTokenExpired(err) {
					code = "TOKEN_EXPIRED"
					message = "Access token has expired"
				}
				writeError(writer, http.StatusUnauthorized, code, message)
				return
			}

			// 3. Inject the verified identity into the context
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that carry no verified identity.
// Must be stacked after [Authenticate].
func RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if ctxutil.GetAuthUser(request.Context()) == nil {
				writeError(writer, http.StatusUnauthorized, "TOKEN_INVALID", "Authentication required")
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// GetUser retrieves the verified claims for the current request.
// Returns nil when the request is anonymous.
func GetUser(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}
