package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

func openRepo(dir string) (*git.Repository, string, error) {
	repoRoot, err := repoRootForDir(dir)
	if err != nil {
		return nil, "", err
	}
	repo, err := git.PlainOpenWithOptions(repoRoot, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, "", err
	}
	return repo, repoRoot, nil
}

// listKnownRefs returns local branches ("501") and remote-tracking branches
// ("origin/501") as short names, sorted.
func listKnownRefs(repo *git.Repository) ([]string, error) {
	iter, err := repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	refs := make([]string, 0, 32)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		switch {
		case name.IsBranch():
			refs = append(refs, name.Short())
		case name.IsRemote():
			short := strings.TrimPrefix(name.String(), "refs/remotes/")
			if strings.HasSuffix(short, "/HEAD") {
				return nil
			}
			refs = append(refs, short)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(refs)
	return refs, nil
}

func listRemotes(repo *git.Repository) ([]string, error) {
	remotes, err := repo.Remotes()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(remotes))
	for _, r := range remotes {
		names = append(names, r.Config().Name)
	}
	sort.Strings(names)
	return names, nil
}

// currentBranch returns the short name of HEAD, or "" when HEAD is detached
// or the repository has no commits yet.
func currentBranch(repo *git.Repository) string {
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}

func localBranchExists(repo *git.Repository, branch string) bool {
	_, err := repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	return err == nil
}

// resolveBaseCommit maps a short ref name to a commit hash, trying local
// branches, then remote-tracking branches, then any revision git accepts.
func resolveBaseCommit(repo *git.Repository, baseRef string) (plumbing.Hash, error) {
	baseRef = strings.TrimSpace(baseRef)
	if baseRef == "" {
		return plumbing.ZeroHash, errors.New("base ref required")
	}
	for _, name := range []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(baseRef),
		plumbing.ReferenceName("refs/remotes/" + baseRef),
	} {
		if ref, err := repo.Reference(name, true); err == nil {
			commit, err := repo.CommitObject(ref.Hash())
			if err != nil {
				return plumbing.ZeroHash, fmt.Errorf("%s does not point at a commit: %w", baseRef, err)
			}
			return commit.Hash, nil
		}
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(baseRef))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %s: %w", baseRef, err)
	}
	return *hash, nil
}

// createBranch writes refs/heads/<newBranch> at the commit baseRef points to.
// The working tree and HEAD are left untouched.
func createBranch(repo *git.Repository, newBranch string, baseRef string) error {
	wrap := func(err error) error {
		return &CreationError{Branch: newBranch, BaseRef: baseRef, Err: err}
	}
	if err := validateBranchName(newBranch); err != nil {
		return wrap(err)
	}
	if localBranchExists(repo, newBranch) {
		return wrap(errBranchExists)
	}
	hash, err := resolveBaseCommit(repo, baseRef)
	if err != nil {
		return wrap(err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(newBranch), hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		return wrap(err)
	}
	return nil
}
