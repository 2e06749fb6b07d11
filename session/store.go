package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/unionhall/gameshelf/model"
)

// storedCredential is the on-disk form of a session. Role travels as its wire
// string so the file stays readable.
type storedCredential struct {
	Token    string    `json:"token"`
	Role     string    `json:"role"`
	Identity string    `json:"identity"`
	Expiry   time.Time `json:"expiry"`
}

// Store persists the session credential to a local file so a session can
// survive a restart. Logout must be able to erase it completely.
type Store struct {
	path string
}

// NewStore creates a Store writing to path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save writes the credential, creating parent directories as needed. The file
// is written 0600: it holds a live token.
func (s *Store) Save(sess *model.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(storedCredential{
		Token:    sess.Token,
		Role:     sess.Role.String(),
		Identity: sess.Identity,
		Expiry:   sess.Expiry,
	})
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the persisted credential. A missing file is not an error; it
// just means no session was saved.
func (s *Store) Load() (*model.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cred storedCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}
	role, err := model.ParseRole(cred.Role)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		Token:    cred.Token,
		Role:     role,
		Identity: cred.Identity,
		Expiry:   cred.Expiry,
	}, nil
}

// Clear erases the persisted credential. Removing a file that is already gone
// is fine.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// tokenExpired cross-checks the token's own exp claim against now. The store
// issues JWTs; the client holds no signing key, so the claim is read without
// verifying the signature. Opaque tokens pass through unchecked.
func tokenExpired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
