// Package vcs derives workspace labels from the working directory and its git
// checkout.
package vcs

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const gitTimeout = 2 * time.Second

// Branch returns the checked-out branch of the repository containing dir.
// It returns "" outside a repository, on a detached HEAD, or when git is
// unavailable.
func Branch(ctx context.Context, dir string) string {
	b := runGit(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if b == "HEAD" {
		return ""
	}
	return b
}

// Root returns the top-level directory of the repository containing dir, or "".
func Root(ctx context.Context, dir string) string {
	return runGit(ctx, dir, "rev-parse", "--show-toplevel")
}

// Workspace names the workspace for dir: the repository root's base name, or
// dir's own base name outside a repository. With withBranch the current
// branch is appended as "<workspace>/<branch>".
func Workspace(ctx context.Context, dir string, withBranch bool) string {
	name := filepath.Base(filepath.Clean(dir))
	if root := Root(ctx, dir); root != "" {
		name = filepath.Base(root)
	}
	if withBranch {
		if b := Branch(ctx, dir); b != "" {
			name += "/" + b
		}
	}
	return name
}

func runGit(ctx context.Context, dir string, args ...string) string {
	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
