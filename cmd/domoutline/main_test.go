package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w
	runErr := fn()
	os.Stdout = orig
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if runErr != nil {
		t.Fatal(runErr)
	}
	return string(out)
}

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	page := `<html><head><title>Login</title></head><body><input id="user" placeholder="Email"><button>Sign in</button></body></html>`
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_HTMLOutline(t *testing.T) {
	path := writePage(t)
	got := captureStdout(t, func() error {
		return run(context.Background(), slog.Default(), options{html: path, observation: true})
	})
	want := "current web tab name is 'Login'\n[1] textbox 'Email'\n[2] button 'Sign in'\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRun_Locate(t *testing.T) {
	path := writePage(t)
	out := captureStdout(t, func() error {
		return run(context.Background(), slog.Default(), options{html: path, locate: 1})
	})
	var got struct {
		Selector string `json:"selector"`
		XPath    string `json:"xpath"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Selector != "#user" || got.XPath != "/html/body/input[1]" {
		t.Fatalf("got %+v", got)
	}
}

func TestRun_HistoryDisabled(t *testing.T) {
	t.Setenv("DOMOUTLINE_HISTORY_DB", "")
	if err := run(context.Background(), slog.Default(), options{history: 5}); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

func TestRun_HistoryEnabled(t *testing.T) {
	t.Setenv("DOMOUTLINE_HISTORY_DB", filepath.Join(t.TempDir(), "h.db"))
	path := writePage(t)
	captureStdout(t, func() error {
		return run(context.Background(), slog.Default(), options{html: path})
	})
	out := captureStdout(t, func() error {
		return run(context.Background(), slog.Default(), options{history: 5})
	})
	var rec struct {
		Source string `json:"source"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rec.Source != "html" || rec.Title != "Login" {
		t.Fatalf("got %+v", rec)
	}
}

func TestLoadDotEnv(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	if err := loadDotEnv(logger, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file: got %v, want nil", err)
	}

	bad := filepath.Join(dir, "bad.env")
	if err := os.WriteFile(bad, []byte("DOMOUTLINE_TEST_BAD=\"unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := loadDotEnv(logger, bad); err == nil {
		t.Fatal("malformed file: got nil error")
	}

	good := filepath.Join(dir, "good.env")
	if err := os.WriteFile(good, []byte("DOMOUTLINE_TEST_GOOD=yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("DOMOUTLINE_TEST_GOOD") })
	if err := loadDotEnv(logger, good); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("DOMOUTLINE_TEST_GOOD"); got != "yes" {
		t.Fatalf("got %q, want %q", got, "yes")
	}
}
