package internal

import (
	"os/exec"
	"runtime"
	"strings"
)

// CurrentEnvironment describes the host recording a step
func CurrentEnvironment() *EnvironmentInfo {
	return &EnvironmentInfo{
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
}

// DetectGitInfo reads branch, short commit and dirty state of the working
// directory's repository. Nil is returned outside a repository or without git.
func DetectGitInfo() *GitInfo {
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		LogDebug("git branch unavailable: %v", err)
		return nil
	}
	commit, err := gitOutput("rev-parse", "--short", "HEAD")
	if err != nil {
		return nil
	}
	status, err := gitOutput("status", "--porcelain")
	if err != nil {
		return nil
	}
	dirty := status != ""
	return &GitInfo{Branch: branch, Commit: commit, Dirty: &dirty}
}

func gitOutput(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
