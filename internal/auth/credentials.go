// Package auth caches the bearer token issued by the identity backend. The
// token is opaque; expiry surfaces as a 401 on use, at which point the user
// logs in again.
package auth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Credentials is the locally cached identity.
type Credentials struct {
	UserID  string    `json:"user_id"`
	Email   string    `json:"email,omitempty"`
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// Cache stores credentials as a single JSON file under the data directory.
type Cache struct {
	path string
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, "credentials.json")}
}

// Load returns the cached credentials, or nil when none are saved. An
// unreadable file is treated as not logged in.
func (c *Cache) Load() *Credentials {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil || creds.Token == "" {
		return nil
	}
	return &creds
}

// Save writes the credentials, readable by the owner only.
func (c *Cache) Save(creds Credentials) error {
	if creds.Token == "" {
		return errors.New("refusing to save empty token")
	}
	creds.SavedAt = time.Now().UTC()
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, raw, 0o600)
}

// Clear forgets the cached credentials. Missing file is not an error.
func (c *Cache) Clear() error {
	err := os.Remove(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
