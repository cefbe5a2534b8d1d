package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestConfigLintSuccess(t *testing.T) {
	manifest := configManifest(
		"endpoint:",
		"  port: 9123",
		"companion:",
		"  script: backend/main.py",
	)
	stdout, stderr, path, err := runConfigCmd(t, manifest, "lint")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	want := fmt.Sprintf("%s: OK\n", path)
	if stdout != want {
		t.Fatalf("unexpected stdout: got %q want %q", stdout, want)
	}
	if stderr != "" {
		t.Fatalf("unexpected stderr output: %q", stderr)
	}
}

func TestConfigLintValidationFailure(t *testing.T) {
	manifest := configManifest(
		"endpoint:",
		"  port: 70000",
		"probe:",
		"  kind: udp",
	)
	stdout, stderr, _, err := runConfigCmd(t, manifest, "lint")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if stdout != "" {
		t.Fatalf("expected empty stdout, got %q", stdout)
	}
	for _, field := range []string{"endpoint.port", "probe.kind"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("error does not mention %s: %v", field, err)
		}
	}
	if stderr != "" {
		t.Fatalf("lint must leave printing the error to the caller, got %q", stderr)
	}
}

func TestConfigLintMissingExplicitFile(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "lint", "--config", filepath.Join(t.TempDir(), "absent.yaml")})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for an explicitly named missing file")
	}
}

func TestConfigLintDefaultsWithoutFile(t *testing.T) {
	t.Setenv(envConfig, "")
	t.Chdir(t.TempDir())

	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "lint"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out.String() != "built-in defaults: OK\n" {
		t.Fatalf("unexpected stdout %q", out.String())
	}
}

func TestConfigPrintAppliesDefaults(t *testing.T) {
	manifest := configManifest(
		"endpoint:",
		"  port: 9123",
		"companion:",
		"  primary: pythonw",
	)
	stdout, _, _, err := runConfigCmd(t, manifest, "print")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(stdout), &doc); err != nil {
		t.Fatalf("print output is not YAML: %v\n%s", err, stdout)
	}
	endpoint, ok := doc["endpoint"].(map[string]any)
	if !ok || endpoint["host"] != "127.0.0.1" {
		t.Fatalf("expected default host in output, got %v", doc["endpoint"])
	}
	companion, ok := doc["companion"].(map[string]any)
	if !ok || companion["fallback"] != "python" {
		t.Fatalf("expected default fallback in output, got %v", doc["companion"])
	}
	probe, ok := doc["probe"].(map[string]any)
	if !ok || probe["timeout"] != "1s" {
		t.Fatalf("expected default probe timeout in output, got %v", doc["probe"])
	}
}

func TestConfigPrintRedactsSecrets(t *testing.T) {
	t.Setenv("WARDEN_TEST_TOKEN", "s3cret-value")
	manifest := configManifest(
		"companion:",
		"  args: [\"--api-token=inline-secret\", \"--port\", \"8765\"]",
		"  env:",
		"    API_TOKEN: ${WARDEN_TEST_TOKEN}",
		"    PYTHONUNBUFFERED: \"1\"",
	)
	stdout, _, _, err := runConfigCmd(t, manifest, "print")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if strings.Contains(stdout, "s3cret-value") || strings.Contains(stdout, "inline-secret") {
		t.Fatalf("secrets leaked into output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "[redacted]") || !strings.Contains(stdout, "PYTHONUNBUFFERED") {
		t.Fatalf("expected masked secrets and plain values, got:\n%s", stdout)
	}

	stdout, _, _, err = runConfigCmd(t, manifest, "print", "--show-secrets")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(stdout, "s3cret-value") {
		t.Fatalf("expected --show-secrets to print values, got:\n%s", stdout)
	}
}

func runConfigCmd(t *testing.T, manifest string, sub string, extra ...string) (stdout, stderr, path string, err error) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "warden.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := NewRootCmd()
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(append([]string{"config", sub, "--config", path}, extra...))

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), path, err
}

func configManifest(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}
