package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// GoogleClient holds the files of the Google OAuth desktop flow: the app's
// credential file and the user's cached token.
type GoogleClient struct {
	CredentialsFile string
	TokenFile       string

	// In and Out carry the one-time authorization prompt.
	In  io.Reader
	Out io.Writer
}

// CalendarClient returns an HTTP client allowed to edit calendar events,
// prompting for authorization when no token is cached yet.
func (g *GoogleClient) CalendarClient(ctx context.Context) (*http.Client, error) {
	b, err := os.ReadFile(g.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}

	tok, err := tokenFromFile(g.TokenFile)
	if err != nil {
		tok, err = g.tokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(g.TokenFile, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

// tokenFromWeb asks the user to open the consent page and paste the code back.
func (g *GoogleClient) tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(g.Out, "\nOpen this link to allow calendar access:\n%v\n\n", authURL)
	fmt.Fprint(g.Out, "Paste the code here: ")

	var authCode string
	if _, err := fmt.Fscan(g.In, &authCode); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
