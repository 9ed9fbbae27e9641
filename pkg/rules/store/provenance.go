package store

import (
	"errors"
	"fmt"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"ecagent-hq/ecagent/pkg/evidence"
)

// Provenance describes the git commit a rule file was loaded from. It
// returns nil without error when the file is not inside a git work tree or
// the repository has no commits yet.
func Provenance(path string) (*evidence.RuleSetVersion, error) {
	if path == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	repo, err := gogit.PlainOpenWithOptions(filepath.Dir(abs), &gogit.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository for %q: %w", path, err)
	}

	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}

	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get commit: %w", err)
	}

	version := &evidence.RuleSetVersion{
		CommitSHA:  commit.Hash.String(),
		CommitTime: commit.Author.When.UTC(),
		Author:     fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email),
		Message:    firstLine(commit.Message),
	}
	if ref.Name().IsBranch() {
		version.Branch = ref.Name().Short()
	}

	dirty, err := fileDirty(repo, abs)
	if err != nil {
		return nil, err
	}
	version.Dirty = dirty

	return version, nil
}

// fileDirty reports whether the file differs from HEAD in the work tree or index.
func fileDirty(repo *gogit.Repository, abs string) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	root := wt.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false, fmt.Errorf("failed to locate %q in worktree: %w", abs, err)
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}

	fs, ok := status[filepath.ToSlash(rel)]
	if !ok {
		return false, nil
	}
	return fs.Worktree != gogit.Unmodified || fs.Staging != gogit.Unmodified, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
