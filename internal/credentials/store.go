// File: internal/credentials/store.go

// Package credentials persists browser cookies between runs so operations
// can reuse an authenticated session without logging in again.
package credentials

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cookie is the stored form of a browser cookie. Expires is unix seconds;
// zero means a session cookie.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Store reads and writes the cookie file. The file is always read and
// written as a whole; concurrent writers race with last-write-wins
// semantics, which is acceptable for a single-user tool.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore builds a Store for the given file path. A leading "~" is
// expanded to the user's home directory.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand cookie file path %q: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: expanded, logger: logger.Named("credentials")}, nil
}

// Path returns the resolved cookie file location.
func (s *Store) Path() string { return s.path }

// Load returns the stored cookies. A missing file is not an error; it
// returns an empty slice so callers can treat "no credentials yet" as a
// normal state.
func (s *Store) Load() ([]Cookie, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("No cookie file found", zap.String("path", s.path))
			return nil, nil
		}
		return nil, fmt.Errorf("read cookie file %s: %w", s.path, err)
	}
	var cookies []Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", s.path, err)
	}
	return cookies, nil
}

// Save replaces the entire cookie file with the given set. Duplicates by
// (name, domain, path) are collapsed, keeping the last occurrence, which is
// the freshest value when the input comes straight from the browser.
func (s *Store) Save(cookies []Cookie) error {
	deduped := dedupe(cookies)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create cookie dir %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(deduped, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	// Cookies are secrets; keep the file owner-only.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file %s: %w", s.path, err)
	}
	s.logger.Debug("Saved cookies", zap.Int("count", len(deduped)), zap.String("path", s.path))
	return nil
}

// Clear removes the cookie file. Clearing an already empty store succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cookie file %s: %w", s.path, err)
	}
	return nil
}

func dedupe(cookies []Cookie) []Cookie {
	type key struct{ name, domain, path string }
	index := make(map[key]int, len(cookies))
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		k := key{c.Name, c.Domain, c.Path}
		if i, ok := index[k]; ok {
			out[i] = c
			continue
		}
		index[k] = len(out)
		out = append(out, c)
	}
	return out
}
