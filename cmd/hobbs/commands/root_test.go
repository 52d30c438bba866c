package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hobbsbbs/hobbs/pkg/store"
)

// execute runs the root command with args and captures stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "hobbs") {
		t.Errorf("version output missing binary name:\n%s", out)
	}
}

func TestInitCreatesConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	out, err := execute(t, "init")
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	path := filepath.Join(dir, "hobbs", "config.yaml")
	if !strings.Contains(out, path) {
		t.Errorf("init output does not name %s:\n%s", path, out)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %o, want 0600", info.Mode().Perm())
	}

	// A second init without --force refuses to overwrite.
	if _, err := execute(t, "init"); err == nil {
		t.Error("second init should fail without --force")
	}
	if _, err := execute(t, "init", "--force"); err != nil {
		t.Errorf("init --force failed: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	out, err := execute(t, "config", "validate")
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Errorf("unexpected validate output:\n%s", out)
	}
}

func TestUserDeactivateAndActivate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	if _, err := execute(t, "init"); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	seed := func() *store.GORMStore {
		st, err := openStore()
		if err != nil {
			t.Fatalf("open store: %v", err)
		}
		return st
	}

	// The first account becomes SysOp and cannot be deactivated while it
	// is the only one, so seed a second member account to act on.
	st := seed()
	if _, err := st.RegisterUser(context.Background(), "sysadmin", "hunter2hunter2", ""); err != nil {
		t.Fatalf("seed sysop: %v", err)
	}
	if _, err := st.RegisterUser(context.Background(), "mabel", "hunter2hunter2", ""); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, err := execute(t, "user", "deactivate", "mabel", "--yes")
	if err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if !strings.Contains(out, "deactivated") {
		t.Errorf("unexpected deactivate output:\n%s", out)
	}

	st = seed()
	u, err := st.GetUser(context.Background(), "mabel")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.IsActive {
		t.Error("account still active after deactivate")
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	if _, err := execute(t, "user", "activate", "mabel"); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	st = seed()
	defer func() { _ = st.Close() }()
	u, err = st.GetUser(context.Background(), "mabel")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !u.IsActive {
		t.Error("account still inactive after activate")
	}
}

func TestConfigSchema(t *testing.T) {
	out, err := execute(t, "config", "schema")
	if err != nil {
		t.Fatalf("schema failed: %v", err)
	}
	if !strings.Contains(out, "HOBBS Configuration") {
		t.Errorf("schema output missing title:\n%s", out)
	}
}
