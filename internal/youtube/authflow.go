package youtube

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/samber/lo"
	"golang.org/x/oauth2"
)

// AuthorizationTimeout is how long we'll wait for the user to grant access
const AuthorizationTimeout = 5 * time.Minute

// PromptForRefreshToken spins up a small HTTP server on http://localhost:<port>, then
// opens a browser window that sends the user to Google to grant our app access to
// their YouTube account. Google redirects back to that server with an authorization
// code, which we exchange for a token. The OAuth client must be configured with
// 'http://localhost:<port>/auth' as a valid redirect URI.
func PromptForRefreshToken(ctx context.Context, config *Config, port uint16) (*oauth2.Token, error) {
	callbackUrl := fmt.Sprintf("http://localhost:%d/auth", port)
	oauthConfig := config.OAuthConfig(callbackUrl)

	state, err := generateCsrfToken()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, AuthorizationTimeout)
	defer cancel()

	codeChannel := make(chan string, 1)
	errorChannel := make(chan error, 1)
	handleAuthCallback := func(res http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/auth" {
			http.Error(res, "path not supported", http.StatusNotFound)
			return
		}
		if req.Method != http.MethodGet {
			http.Error(res, "method not supported", http.StatusMethodNotAllowed)
			return
		}
		code, err := parseCodeGrant(req, state, Scopes)
		if err != nil {
			servePage(res, http.StatusBadRequest, "Authentication Failed", err.Error())
			select {
			case errorChannel <- err:
			default:
			}
			return
		}
		servePage(res, http.StatusOK, "Authentication OK", "YouTube access has been granted.")
		select {
		case codeChannel <- code:
		default:
		}
	}

	// Offline access with forced consent ensures that Google issues a refresh token
	authorizeUrl := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	server := &http.Server{
		Addr:    fmt.Sprintf("localhost:%d", port),
		Handler: http.HandlerFunc(handleAuthCallback),
	}
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			serverErr <- err
		}
	}()
	defer server.Shutdown(context.Background())

	fmt.Printf("Opening web browser: %s\n", authorizeUrl)
	if err := browser.OpenURL(authorizeUrl); err != nil {
		fmt.Printf("Failed to open browser; visit the URL above manually.\n")
	}

	var code string
	select {
	case code = <-codeChannel:
	case err := <-errorChannel:
		return nil, err
	case err := <-serverErr:
		return nil, fmt.Errorf("error running callback server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("timed out waiting for user authorization")
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code for token: %w", err)
	}
	if token.RefreshToken == "" {
		return nil, fmt.Errorf("Google did not issue a refresh token")
	}
	return token, nil
}

// generateCsrfToken returns a cryptographically random hex string
func generateCsrfToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// parseCodeGrant verifies that the redirect carries our CSRF token and grants every
// scope we asked for, then returns the authorization code
func parseCodeGrant(req *http.Request, csrfToken string, desiredScopes []string) (string, error) {
	q := req.URL.Query()
	if errValue := q.Get("error"); errValue != "" {
		return "", fmt.Errorf("authorization was denied: %s", errValue)
	}

	state := q.Get("state")
	if state == "" {
		return "", fmt.Errorf("'state' value not found in URL query params")
	}
	if state != csrfToken {
		return "", fmt.Errorf("CSRF token verification failed")
	}

	// Google separates granted scopes with spaces
	scopes := strings.Fields(q.Get("scope"))
	if missing, _ := lo.Difference(desiredScopes, scopes); len(missing) > 0 {
		return "", fmt.Errorf("required scope '%s' was not granted", missing[0])
	}

	code := q.Get("code")
	if code == "" {
		return "", fmt.Errorf("'code' value not found in URL query params")
	}
	return code, nil
}

// servePage renders a simple HTML page so the user gets some feedback after being
// redirected back from Google
func servePage(res http.ResponseWriter, statusCode int, title string, message string) {
	pageTemplate := successPageTemplate
	if statusCode >= 300 {
		pageTemplate = errorPageTemplate
	}
	page := fmt.Sprintf(pageTemplate, title, title, html.EscapeString(message))
	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.WriteHeader(statusCode)
	res.Write([]byte(page))
}

const successPageTemplate = `<!DOCTYPE html>
<html>
  <head>
    <title>%s</title>
  </head>
  <body>
    <h1>%s</h1>
    <p>%s</p>
    <p>You may now close this window and return to the terminal.</p>
  </body>
</html>
`

const errorPageTemplate = `<!DOCTYPE html>
<html>
  <head>
    <title>%s</title>
  </head>
  <body>
    <h1>%s</h1>
    <p>%s</p>
  </body>
</html>
`
