// Package auth authenticates bearer tokens and authorizes admin operations.
//
// JWTAuthenticator validates HMAC-signed tokens from the Authorization
// header. RoleAuthorizer admits identities that carry a required role.
// Middleware combines both in front of an http.Handler and stores the
// identity in the request context.
package auth
