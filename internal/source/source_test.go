package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-github/v80/github"
	"github.com/rs/zerolog"

	"github.com/hyejinbaek/cognition-ai-proj/internal/config"
	"github.com/hyejinbaek/cognition-ai-proj/internal/logging"
	"github.com/hyejinbaek/cognition-ai-proj/internal/validation"
)

var testLogger = logging.Zerolog(zerolog.Nop())

const fieldsDoc = `fields:
  location:
    kind: vocabulary
    tokens: [3층, 회의실]
  content:
    kind: content
`

const meetingDoc = `categories:
  - name: meeting
    category: Meeting
    min_tokens: 2
    required: [location, content]
    outcomes:
      - verdict: Approved
        when: len(missing) == 0
      - verdict: Rejected
        when: "true"
`

func TestFileFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(fieldsDoc+meetingDoc), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := NewFileFetcher(path).Fetch(context.Background(), testLogger)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(table.Categories) != 1 || table.Categories[0].Name != "meeting" {
		t.Fatalf("categories = %+v", table.Categories)
	}
	if len(table.Revision) != 12 {
		t.Errorf("Revision = %q, want a 12 digit content hash", table.Revision)
	}
	if err := validation.ValidateRuleTable(table); err != nil {
		t.Errorf("fetched table does not validate: %v", err)
	}
}

func TestFileFetcher_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewFileFetcher(filepath.Join(dir, "missing.yaml")).Fetch(context.Background(), testLogger); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("categories: [unclosed"), 0o600)
	if _, err := NewFileFetcher(bad).Fetch(context.Background(), testLogger); err == nil {
		t.Error("expected syntax error")
	}
}

const testSHA = "0f3c9a1e5b7d2c4f6a8b0d1e3f5a7c9b1d3e5f70"

func fakeGitHub(t *testing.T, files map[string]string) *github.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/policies/commits/main", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testSHA))
	})
	mux.HandleFunc("GET /repos/acme/policies/git/trees/"+testSHA, func(w http.ResponseWriter, r *http.Request) {
		var entries []map[string]string
		for p := range files {
			entries = append(entries, map[string]string{"path": p, "type": "blob"})
		}
		entries = append(entries, map[string]string{"path": "rules", "type": "tree"})
		_ = json.NewEncoder(w).Encode(map[string]any{"sha": "abc", "tree": entries})
	})
	mux.HandleFunc("GET /repos/acme/policies/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		if ref := r.URL.Query().Get("ref"); ref != testSHA {
			http.Error(w, "unpinned ref "+ref, http.StatusBadRequest)
			return
		}
		content, ok := files[r.PathValue("path")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     r.PathValue("path"),
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := github.NewClient(nil)
	base, _ := url.Parse(srv.URL + "/")
	client.BaseURL = base
	return client
}

func githubConfig() config.GitHubSourceConfig {
	return config.GitHubSourceConfig{
		AppID:          1,
		InstallationID: 2,
		PrivateKey:     "unused",
		Owner:          "acme",
		Repo:           "policies",
		Path:           "rules/",
		Ref:            "main",
	}
}

func TestGitHubFetcher_MergesInPathOrder(t *testing.T) {
	client := fakeGitHub(t, map[string]string{
		"rules/10-meeting.yaml": meetingDoc,
		"rules/00-fields.yml":   fieldsDoc,
		"README.md":             "ignored",
		"other/ignored.yaml":    "not: [valid",
	})

	f, err := NewGitHubFetcher(githubConfig())
	if err != nil {
		t.Fatal(err)
	}
	f.connect = func(context.Context) (*github.Client, error) { return client, nil }

	table, err := f.Fetch(context.Background(), testLogger)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, ok := table.Fields["location"]; !ok {
		t.Errorf("fields not merged: %+v", table.Fields)
	}
	if len(table.Categories) != 1 {
		t.Errorf("categories = %d, want 1", len(table.Categories))
	}
	if table.Revision != testSHA {
		t.Errorf("Revision = %q, want %q", table.Revision, testSHA)
	}
	if err := validation.ValidateRuleTable(table); err != nil {
		t.Errorf("merged table does not validate: %v", err)
	}
}

func TestGitHubFetcher_NoDocuments(t *testing.T) {
	client := fakeGitHub(t, map[string]string{"README.md": "x"})

	f, _ := NewGitHubFetcher(githubConfig())
	f.connect = func(context.Context) (*github.Client, error) { return client, nil }

	if _, err := f.Fetch(context.Background(), testLogger); err == nil {
		t.Error("expected error when the repository holds no rule documents")
	}
}

func TestNew(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil source")
	}
	f, err := New(&config.PolicySource{File: &config.FileSourceConfig{Path: "rules.yaml"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f.(*FileFetcher); !ok {
		t.Errorf("New(file) = %T", f)
	}
	if _, err := New(&config.PolicySource{GitHub: &config.GitHubSourceConfig{}}); err == nil {
		t.Error("expected validation error for empty GitHub config")
	}
}

func TestGitHubFetcher_BrokenDocument(t *testing.T) {
	client := fakeGitHub(t, map[string]string{
		"rules/00-fields.yml": fieldsDoc,
		"rules/20-broken.yml": "categories: [oops",
	})

	f, _ := NewGitHubFetcher(githubConfig())
	f.connect = func(context.Context) (*github.Client, error) { return client, nil }

	_, err := f.Fetch(context.Background(), testLogger)
	if err == nil || !strings.Contains(err.Error(), "rules/20-broken.yml") {
		t.Errorf("Fetch() error = %v, want error naming the broken document", err)
	}
}

