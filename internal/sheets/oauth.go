package sheets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

// ErrAuthorizationDenied is returned when the consent redirect carries no code.
var ErrAuthorizationDenied = errors.New("no authorization code received")

// OAuth2Config configures the interactive consent flow.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	// TokenFile receives the token when set.
	TokenFile string
	// ListenAddr defaults to localhost:8080.
	ListenAddr string
	// Timeout defaults to five minutes.
	Timeout time.Duration
}

func oauthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{sheets.SpreadsheetsScope},
	}
}

// callback receives the single redirect from Google's consent page.
type callback struct {
	codes chan string
	errs  chan error
	state string
}

func (c *callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if q.Get("state") != c.state || code == "" {
		offer(c.errs, ErrAuthorizationDenied)
		http.Error(w, "Authorization failed, return to the terminal and try again.", http.StatusBadRequest)
		return
	}
	offer(c.codes, code)
	_, _ = fmt.Fprint(w, "tariff is authorized. You can close this window.")
}

// offer never blocks: only the first redirect counts.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// AuthenticateOAuth2Interactive logs the consent URL, waits for the redirect
// on a local callback server and exchanges the code for a token carrying a
// refresh token.
func AuthenticateOAuth2Interactive(ctx context.Context, cfg OAuth2Config) (*oauth2.Token, error) {
	addr := cfg.ListenAddr
	if addr == "" {
		addr = "localhost:8080"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	cb := &callback{state: state, codes: make(chan string, 1), errs: make(chan error, 1)}
	mux := http.NewServeMux()
	mux.Handle("/callback", cb)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			offer(cb.errs, fmt.Errorf("callback server failed: %w", err))
		}
	}()
	defer func() {
		if err := server.Shutdown(context.Background()); err != nil {
			slog.Warn("Failed to stop callback server", "error", err)
		}
	}()

	conf := oauthConfig(cfg.ClientID, cfg.ClientSecret, "http://"+listener.Addr().String()+"/callback")
	slog.Info("Open this URL to authorize Google Sheets access",
		"url", conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var code string
	select {
	case code = <-cb.codes:
	case err := <-cb.errs:
		return nil, err
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("authentication timeout: no response received within %s", timeout)
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if cfg.TokenFile != "" {
		if err := SaveToken(cfg.TokenFile, token); err != nil {
			slog.Warn("Failed to save token", "file", cfg.TokenFile, "error", err)
		} else {
			slog.Info("Token saved", "file", cfg.TokenFile)
		}
	}
	return token, nil
}

// LoadToken reads a token written by SaveToken.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", path, err)
	}
	return &token, nil
}

// SaveToken writes token to path, readable only by the owner.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
