// Package server runs the short-lived HTTP listener used by CLI sign-in.
//
// # Routing
//
// [CallbackRouter] mounts [Handler] values by the [Route] list they report and wraps the whole mux in
// [Middleware], first added running first. [RequestLogger] is the only middleware the CLI installs.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow for Google sign-in.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback to prevent replay attacks.
//
// When the user runs `auth login`, a temporary HTTP server starts on the configured host and port, handles the
// callback, and shuts down after receiving the token. [SaveToken] persists it; [LoadToken] reads it back so
// [GoogleConfig] can build a refreshing token source for the API client.
package server
