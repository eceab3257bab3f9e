package main

import (
	"os"
	"path/filepath"
	"strings"
)

func repoRootForDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errNotInGitRepository
		}
		dir = wd
	}
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", errNotInGitRepository
	}
	for {
		dotGit := filepath.Join(current, ".git")
		if _, err := os.Stat(dotGit); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return "", errNotInGitRepository
}

// detectRemote returns the configured remote, the repository's only remote,
// or origin.
func detectRemote(configured string, remotes []string) string {
	if r := strings.TrimSpace(configured); r != "" {
		return r
	}
	if len(remotes) == 1 {
		return remotes[0]
	}
	return defaultRemote
}
