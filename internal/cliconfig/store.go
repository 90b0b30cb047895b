// Package cliconfig persists admin sessions of the triage CLI, one per server host.
package cliconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

var ErrCredentialNotFound = errors.New("no saved session for this server, run 'triage login'")

// Credential is an admin session token for one server.
type Credential struct {
	Token     string    `yaml:"token"`
	Subject   string    `yaml:"subject,omitempty"`
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
}

// Expired reports whether the token is past its expiry. Tokens without expiry never expire.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store is the credential file. The zero value is an empty store at the default path.
type Store struct {
	path        string
	Credentials map[string]Credential `yaml:"credentials"`
}

// Path returns the credential file, $TRIAGE_CLI_CONFIG or ~/.triage/credentials.yaml.
func Path() (string, error) {
	if p := os.Getenv("TRIAGE_CLI_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return filepath.Join(home, ".triage", "credentials.yaml"), nil
}

// Open reads the credential file. A missing file yields an empty store.
func Open() (*Store, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, Credentials: map[string]Credential{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding '%s': %w", path, err)
	}
	if s.Credentials == nil {
		s.Credentials = map[string]Credential{}
	}
	return s, nil
}

// Save writes the store readable by the owner only, replacing the file atomically.
func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating '%s': %w", dir, err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Get returns the credential for the host of server.
func (s *Store) Get(server string) (Credential, error) {
	host, err := hostOf(server)
	if err != nil {
		return Credential{}, err
	}
	cred, ok := s.Credentials[host]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return cred, nil
}

// Put stores cred for the host of server and returns the host.
func (s *Store) Put(server string, cred Credential) (string, error) {
	host, err := hostOf(server)
	if err != nil {
		return "", err
	}
	s.Credentials[host] = cred
	return host, nil
}

// Remove forgets the credential of server. Removing an unknown server is not an error.
func (s *Store) Remove(server string) (bool, error) {
	host, err := hostOf(server)
	if err != nil {
		return false, err
	}
	_, ok := s.Credentials[host]
	delete(s.Credentials, host)
	return ok, nil
}

func hostOf(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parsing server URL '%s': %w", server, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server URL '%s' has no host", server)
	}
	return u.Host, nil
}
