package version

import "testing"

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version == "" || info.GitCommit == "" || info.BuildDate == "" {
		t.Fatalf("expected non-empty version info")
	}
}

func TestGetShortCommit(t *testing.T) {
	old := GitCommit
	t.Cleanup(func() { GitCommit = old })

	GitCommit = "abcdef123456"
	if GetShortCommit() != "abcdef1" {
		t.Fatalf("expected short commit")
	}
}

func TestInfoString(t *testing.T) {
	got := Info{Version: "v1.2.3", GitCommit: "abcdef123456", BuildDate: "2026-01-02"}.String()
	if got != "v1.2.3 (abcdef1, 2026-01-02)" {
		t.Fatalf("unexpected %q", got)
	}
}
