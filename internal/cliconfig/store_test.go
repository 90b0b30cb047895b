package cliconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.yaml")
	t.Setenv("TRIAGE_CLI_CONFIG", path)

	s, err := Open()
	if err != nil {
		t.Fatalf("Open() on missing file error = %v", err)
	}
	if len(s.Credentials) != 0 {
		t.Fatalf("expected empty store, got %+v", s.Credentials)
	}

	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	host, err := s.Put("https://triage.example.com/", Credential{Token: "abc", Subject: "ops", ExpiresAt: exp})
	if err != nil || host != "triage.example.com" {
		t.Fatalf("Put() = %q, %v", host, err)
	}
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credential file mode = %o, want 600", perm)
	}

	loaded, err := Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cred, err := loaded.Get("https://triage.example.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if cred.Token != "abc" || cred.Subject != "ops" || !cred.ExpiresAt.Equal(exp) {
		t.Errorf("Get() = %+v", cred)
	}
	if _, err := loaded.Get("http://other:8080"); !errors.Is(err, ErrCredentialNotFound) {
		t.Errorf("expected ErrCredentialNotFound, got %v", err)
	}
	if _, err := loaded.Get("localhost:8080"); err == nil {
		t.Error("expected error for server without scheme")
	}

	removed, err := loaded.Remove("https://triage.example.com")
	if err != nil || !removed {
		t.Errorf("Remove() = %v, %v", removed, err)
	}
	if removed, _ := loaded.Remove("https://triage.example.com"); removed {
		t.Error("second Remove() reported a removal")
	}
}

func TestCredential_Expired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		cred Credential
		want bool
	}{
		{"no expiry", Credential{Token: "x"}, false},
		{"future", Credential{ExpiresAt: now.Add(time.Minute)}, false},
		{"past", Credential{ExpiresAt: now.Add(-time.Minute)}, true},
		{"exactly now", Credential{ExpiresAt: now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	t.Setenv("TRIAGE_CLI_CONFIG", path)
	if err := os.WriteFile(path, []byte("credentials: [oops"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(); err == nil {
		t.Error("expected decode error")
	}
}
