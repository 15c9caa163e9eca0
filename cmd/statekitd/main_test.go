package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "statekitd.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, "environment: test\nserver:\n  port: 9191\nredis:\n  password: hunter2\n")

	out, err := run(t, "validate", "--config", path)
	if err != nil || !strings.Contains(out, "configuration ok") {
		t.Fatalf("validate: %v %q", err, out)
	}

	out, err = run(t, "validate", "--config", path, "--show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "port: 9191") || !strings.Contains(out, "name: statekitd") {
		t.Errorf("effective config missing values:\n%s", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("password must be masked")
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	path := writeConfig(t, "environment: moon\n")
	if _, err := run(t, "validate", "--config", path); err == nil {
		t.Fatal("expected environment error")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--json")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"version"`) {
		t.Errorf("version output = %q", out)
	}
}
