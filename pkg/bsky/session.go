package bsky

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// Session holds the service endpoint and bearer token for the logged-in
// account.
type Session struct {
	URL   string
	Token string
}

// SessionSource yields API credentials extracted from the host page's
// client-side storage. Sources are re-queried whenever a token expires.
type SessionSource interface {
	Session(ctx context.Context) (*Session, error)
}

// FileSession reads a saved BSKY_STORAGE blob from disk.
type FileSession struct {
	Path string
}

func (f *FileSession) Session(ctx context.Context) (*Session, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	return ParseSession(string(b))
}

// ParseSession extracts the endpoint URL and access token from the raw
// BSKY_STORAGE JSON blob the app keeps in localStorage.
func ParseSession(blob string) (*Session, error) {
	account := gjson.Get(blob, "session.currentAccount")
	if !account.Exists() {
		return nil, errors.New("no current account in session storage")
	}
	url := account.Get("pdsUrl").String()
	token := account.Get("accessJwt").String()
	if url == "" || token == "" {
		return nil, errors.New("session storage is missing the endpoint or token")
	}
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	return &Session{URL: url, Token: token}, nil
}
