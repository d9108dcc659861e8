package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// Exchanger trades an authorization code for a token. [*oauth2.Config] satisfies it.
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles OAuth2 callback requests for authorization code flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	config      Exchanger
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a new OAuth handler with the given OAuth2 config and state token.
// The state token should be cryptographically random for CSRF protection.
func NewOAuthHandler(config Exchanger, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves. Providers redirect back with a GET.
func (h *OAuthHandler) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/callback"}}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description"))
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signed in</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #1e1e1e; padding: 2rem; border-radius: 8px; }
        h1 { color: #ff7ab6; margin: 0 0 1rem 0; }
        p { color: #aaa; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Signed in</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
