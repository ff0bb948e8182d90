package session

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenFile stores one raw token string on disk. An absent file means
// logged out.
type TokenFile struct {
	path string
}

// NewTokenFile places the token under dir, creating dir on first save.
func NewTokenFile(dir string) *TokenFile {
	return &TokenFile{path: filepath.Join(dir, "token")}
}

// Read returns the persisted token. ok is false when no token is stored.
func (f *TokenFile) Read() (token string, ok bool, err error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	token = strings.TrimSpace(string(data))
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Write persists the token, replacing any previous one.
func (f *TokenFile) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.path, []byte(token), 0o600)
}

// Clear removes the persisted token. Clearing an absent token is not
// an error.
func (f *TokenFile) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
