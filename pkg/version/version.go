package version

// These variables will be injected at build time via ldflags
var (
	Version   = "dev"     // semantic version (e.g., v1.2.3)
	GitCommit = "unknown" // git commit hash
	BuildDate = "unknown" // build timestamp
)

// Info represents version information for a binary
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
}

// GetInfo returns version information as a struct
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	}
}

// String renders "dev (abcdef1, unknown)".
func (i Info) String() string {
	return i.Version + " (" + shortCommit(i.GitCommit) + ", " + i.BuildDate + ")"
}

// GetShortCommit returns the short git commit hash (first 7 characters)
func GetShortCommit() string {
	return shortCommit(GitCommit)
}

func shortCommit(c string) string {
	if len(c) >= 7 {
		return c[:7]
	}
	return c
}
