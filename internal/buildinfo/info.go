package buildinfo

import "fmt"

// set via -ldflags at release time
var (
	Version    = "v0.1.0"
	CommitHash = "unknown"
)

type Info struct {
	About      string `json:"about,omitempty"`
	Service    string `json:"service,omitempty"`
	Version    string `json:"version,omitempty"`
	CommitHash string `json:"commit_hash,omitempty"`
}

func GetBuildInfo() Info {
	return Info{
		About:      "https://github.com/hyejinbaek/cognition-ai-proj",
		Service:    "Triage",
		Version:    Version,
		CommitHash: CommitHash,
	}
}

// UserAgent identifies outgoing requests to the model endpoint and GitHub.
func UserAgent() string {
	return fmt.Sprintf("Triage/%s (+%s)", Version, GetBuildInfo().About)
}
