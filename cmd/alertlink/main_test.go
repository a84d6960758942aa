package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xiaot623/gogo/alertlink/internal/config"
)

func setupCLITestEnv(t *testing.T) {
	t.Helper()
	chdirTemp(t)
	dbPath := filepath.Join(t.TempDir(), "alertlink.db")
	t.Setenv(config.EnvPrefix+"_DATABASE_URL", "file:"+dbPath)
	t.Setenv(config.EnvPrefix+"_LOG_LEVEL", "error")
}

func runCLI(t *testing.T, args []string, stdin string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestAccountLifecycle(t *testing.T) {
	setupCLITestEnv(t)

	out, err := runCLI(t, []string{"account", "add", "U@X.com", "--name", "Una"}, "s3cret!\n")
	if err != nil {
		t.Fatalf("account add: %v", err)
	}
	requireContains(t, out, "Registered u@x.com")

	out, err = runCLI(t, []string{"account", "list"}, "")
	if err != nil {
		t.Fatalf("account list: %v", err)
	}
	requireContains(t, out, "u@x.com")
	requireContains(t, out, "Una")
	requireContains(t, out, "active")

	out, err = runCLI(t, []string{"account", "deactivate", "u@x.com"}, "")
	if err != nil {
		t.Fatalf("account deactivate: %v", err)
	}
	requireContains(t, out, "u@x.com is now inactive")

	out, err = runCLI(t, []string{"account", "show", "u@x.com"}, "")
	if err != nil {
		t.Fatalf("account show: %v", err)
	}
	requireContains(t, out, "inactive")
	requireContains(t, out, "Channel")
}

func TestAccountAddRejectsDuplicate(t *testing.T) {
	setupCLITestEnv(t)

	if _, err := runCLI(t, []string{"account", "add", "u@x.com", "--password", "s3cret!"}, ""); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := runCLI(t, []string{"account", "add", "u@x.com", "--password", "other-pass"}, "")
	if err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestAccountPasswd(t *testing.T) {
	setupCLITestEnv(t)

	if _, err := runCLI(t, []string{"account", "add", "u@x.com", "--password", "s3cret!"}, ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := runCLI(t, []string{"account", "passwd", "u@x.com", "--current", "wrong!!", "--new", "n3w-pass"}, "")
	if err == nil || !strings.Contains(err.Error(), "current password is incorrect") {
		t.Fatalf("expected wrong password error, got %v", err)
	}

	out, err := runCLI(t, []string{"account", "passwd", "u@x.com", "--current", "s3cret!"}, "n3w-pass\n")
	if err != nil {
		t.Fatalf("passwd: %v", err)
	}
	requireContains(t, out, "Password changed")
}

func TestAccountShowUnknown(t *testing.T) {
	setupCLITestEnv(t)

	if _, err := runCLI(t, []string{"account", "show", "nobody@x.com"}, ""); err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Email", "Status"}, [][]string{{"u@x.com"}})
	requireContains(t, out, "EMAIL")
	requireContains(t, out, "u@x.com")
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty table for no headers")
	}
}

// chdirTemp changes the working directory to a fresh temp dir for the
// duration of the test (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
