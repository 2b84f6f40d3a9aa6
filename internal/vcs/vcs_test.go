package vcs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestWorkspace_OutsideRepository(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	if err := os.Mkdir(dir, 0o750); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if Root(context.Background(), dir) != "" {
		t.Skip("temp dir is inside a git repository")
	}
	if got := Workspace(context.Background(), dir, true); got != "scratch" {
		t.Fatalf("Workspace = %q, want scratch", got)
	}
	if got := Branch(context.Background(), dir); got != "" {
		t.Fatalf("Branch = %q, want empty", got)
	}
}

func TestWorkspace_WithBranch(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := filepath.Join(t.TempDir(), "proj")
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = filepath.Dir(dir)
		if len(args) > 0 && args[0] != "init" {
			cmd.Dir = dir
		}
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git %v: %v\n%s", args, err, out)
		}
	}
	run("init", "-q", "-b", "feature", dir)
	run("-c", "user.name=t", "-c", "user.email=t@example.com", "commit", "-q", "--allow-empty", "-m", "init")

	ctx := context.Background()
	if got := Branch(ctx, dir); got != "feature" {
		t.Fatalf("Branch = %q, want feature", got)
	}
	if got := Workspace(ctx, dir, true); got != "proj/feature" {
		t.Fatalf("Workspace = %q, want proj/feature", got)
	}
	if got := Workspace(ctx, dir, false); got != "proj" {
		t.Fatalf("Workspace(no branch) = %q, want proj", got)
	}
}
