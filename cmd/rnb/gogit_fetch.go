package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	sshconfig "github.com/kevinburke/ssh_config"
)

var sshConfigGet = func(alias, key string) string {
	return sshconfig.Get(alias, key)
}

var sshConfigGetAll = func(alias, key string) []string {
	return sshconfig.GetAll(alias, key)
}

var defaultSSHKeyNames = []string{
	"~/.ssh/id_ed25519",
	"~/.ssh/id_ecdsa",
	"~/.ssh/id_rsa",
}

// fetchRemote updates the remote-tracking branches of remoteName so that
// resolution sees the parent and maintenance branches pushed by others.
func fetchRemote(repo *git.Repository, remoteName string) error {
	endpoint, remoteURL, err := remoteEndpoint(repo, remoteName)
	if err != nil {
		return err
	}
	opts := &git.FetchOptions{RemoteName: remoteName}
	usedAgent := false
	if isSSHEndpoint(endpoint) {
		opts.Auth, usedAgent, err = sshAuthMethod(endpoint, remoteURL)
		if err != nil {
			return err
		}
	}

	err = repo.Fetch(opts)
	if err != nil && usedAgent && isSSHAuthFailure(err) {
		// The agent may hold no key for this host; retry with key files.
		if auth, keyErr := sshKeyFileAuth(endpoint.Host, sshUser(endpoint), remoteURL); keyErr == nil {
			opts.Auth = auth
			err = repo.Fetch(opts)
		}
	}
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", remoteName, err)
	}
	return nil
}

func remoteEndpoint(repo *git.Repository, remoteName string) (*transport.Endpoint, string, error) {
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return nil, "", fmt.Errorf("remote %q: %w", remoteName, err)
	}
	cfg := remote.Config()
	if cfg == nil || len(cfg.URLs) == 0 {
		return nil, "", fmt.Errorf("remote %q has no URL", remoteName)
	}
	remoteURL := strings.TrimSpace(cfg.URLs[0])
	endpoint, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, remoteURL, err
	}
	return endpoint, remoteURL, nil
}

func isSSHEndpoint(endpoint *transport.Endpoint) bool {
	if endpoint == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(endpoint.Protocol)) {
	case "ssh", "git+ssh", "ssh+git":
		return true
	default:
		return false
	}
}

func sshUser(endpoint *transport.Endpoint) string {
	if user := strings.TrimSpace(endpoint.User); user != "" {
		return user
	}
	if user := strings.TrimSpace(sshConfigGet(endpoint.Host, "User")); user != "" {
		return user
	}
	return "git"
}

// sshAuthMethod prefers the ssh agent and reports whether it was chosen.
func sshAuthMethod(endpoint *transport.Endpoint, remoteURL string) (transport.AuthMethod, bool, error) {
	user := sshUser(endpoint)
	if auth, err := gitssh.NewSSHAgentAuth(user); err == nil {
		return auth, true, nil
	}
	auth, err := sshKeyFileAuth(endpoint.Host, user, remoteURL)
	return auth, false, err
}

func sshKeyFileAuth(host string, user string, remoteURL string) (transport.AuthMethod, error) {
	var errs []string
	for _, keyPath := range sshIdentityFiles(host, user) {
		auth, err := gitssh.NewPublicKeysFromFile(user, keyPath, "")
		if err == nil {
			return auth, nil
		}
		errs = append(errs, fmt.Sprintf("%s: %v", keyPath, err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("no usable ssh key for %q", remoteURL)
	}
	return nil, fmt.Errorf("no usable ssh key for %q: %s", remoteURL, strings.Join(errs, "; "))
}

func isSSHAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "attempted methods") ||
		strings.Contains(msg, "permission denied (publickey)")
}

// sshIdentityFiles lists IdentityFile entries from ~/.ssh/config followed by
// the default key names, keeping only existing regular files.
func sshIdentityFiles(host string, remoteUser string) []string {
	candidates := append(sshConfigGetAll(host, "IdentityFile"), defaultSSHKeyNames...)
	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		path := expandSSHIdentityPath(candidate, host, remoteUser)
		if path == "" || seen[path] {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// expandSSHIdentityPath applies the %h, %r, %u and ~ expansions ssh performs
// on IdentityFile values. Relative paths live under ~/.ssh.
func expandSSHIdentityPath(raw string, host string, remoteUser string) string {
	path := strings.Trim(strings.TrimSpace(raw), `"'`)
	if path == "" || strings.EqualFold(path, "none") {
		return ""
	}
	path = strings.NewReplacer(
		"%h", host,
		"%r", remoteUser,
		"%u", strings.TrimSpace(os.Getenv("USER")),
		"%%", "%",
	).Replace(path)

	if strings.HasPrefix(path, "~/") || !filepath.IsAbs(path) {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return ""
		}
		if strings.HasPrefix(path, "~/") {
			path = filepath.Join(home, path[2:])
		} else {
			path = filepath.Join(home, ".ssh", path)
		}
	}
	return filepath.Clean(path)
}
