package store

import (
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func commitRules(t *testing.T, dir string) string {
	t.Helper()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	writeFile(t, dir, "rules.yaml", ruleDoc("GIT"))

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if _, err := wt.Add("rules.yaml"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	hash, err := wt.Commit("Add rules\n\nInitial rule set.", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Rules Author",
			Email: "rules@example.com",
			When:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return hash.String()
}

// TestProvenance_CommittedFile verifies HEAD metadata is recorded for a clean file.
func TestProvenance_CommittedFile(t *testing.T) {
	dir := t.TempDir()
	sha := commitRules(t, dir)

	v, err := Provenance(dir + "/rules.yaml")
	if err != nil {
		t.Fatalf("Provenance() error = %v", err)
	}
	if v == nil {
		t.Fatal("Provenance() = nil, want version")
	}
	if v.CommitSHA != sha {
		t.Errorf("CommitSHA = %q, want %q", v.CommitSHA, sha)
	}
	if v.Author != "Rules Author <rules@example.com>" {
		t.Errorf("Author = %q", v.Author)
	}
	if v.Message != "Add rules" {
		t.Errorf("Message = %q, want first line", v.Message)
	}
	if !v.CommitTime.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("CommitTime = %v", v.CommitTime)
	}
	if v.Branch == "" {
		t.Error("Branch is empty")
	}
	if v.Dirty {
		t.Error("Dirty = true for a committed file")
	}
}

// TestProvenance_DirtyFile verifies local edits are flagged.
func TestProvenance_DirtyFile(t *testing.T) {
	dir := t.TempDir()
	commitRules(t, dir)
	writeFile(t, dir, "rules.yaml", ruleDoc("EDITED"))

	v, err := Provenance(dir + "/rules.yaml")
	if err != nil {
		t.Fatalf("Provenance() error = %v", err)
	}
	if v == nil || !v.Dirty {
		t.Errorf("Provenance() = %+v, want Dirty", v)
	}
}

// TestProvenance_OutsideRepository verifies files outside git yield no version.
func TestProvenance_OutsideRepository(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rules.yaml", ruleDoc("PLAIN"))

	v, err := Provenance(path)
	if err != nil {
		t.Fatalf("Provenance() error = %v", err)
	}
	if v != nil {
		t.Errorf("Provenance() = %+v, want nil", v)
	}

	if v, err := Provenance(""); v != nil || err != nil {
		t.Errorf("Provenance(\"\") = %v, %v", v, err)
	}
}
