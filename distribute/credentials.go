package distribute

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	accessTokenKey  = "TIKTOK_ACCESS_TOKEN"
	refreshTokenKey = "TIKTOK_REFRESH_TOKEN"
)

// Credentials is one access/refresh token pair
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// CredentialStore loads and persists the token pair. Persist must be
// atomic so a crash mid-write can never leave a torn credential behind.
type CredentialStore interface {
	Load() (Credentials, error)
	Persist(Credentials) error
}

// FileCredentialStore keeps the pair in a key=value env-format file,
// alongside whatever other keys that file holds.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore creates a store backed by the given file
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Load() (Credentials, error) {
	env, err := godotenv.Read(s.path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}

	creds := Credentials{
		AccessToken:  env[accessTokenKey],
		RefreshToken: env[refreshTokenKey],
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" {
		return creds, fmt.Errorf("credentials file %s is missing %s or %s", s.path, accessTokenKey, refreshTokenKey)
	}
	return creds, nil
}

// Persist rewrites the file with the new pair via write-then-rename,
// preserving every unrelated key.
func (s *FileCredentialStore) Persist(creds Credentials) error {
	env, err := godotenv.Read(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read credentials file: %w", err)
		}
		env = map[string]string{}
	}

	env[accessTokenKey] = creds.AccessToken
	env[refreshTokenKey] = creds.RefreshToken

	content, err := godotenv.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content + "\n"); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp credentials file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}
