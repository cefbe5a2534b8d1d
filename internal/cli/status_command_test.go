package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeEndpointConfig(t *testing.T, port int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.yaml")
	manifest := fmt.Sprintf("endpoint:\n  port: %d\nprobe:\n  timeout: 200ms\n", port)
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func runStatus(t *testing.T, args ...string) string {
	t.Helper()
	root := NewRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"status"}, args...))
	if err := root.Execute(); err != nil {
		t.Fatalf("status returned error: %v", err)
	}
	return out.String()
}

func TestStatusReportsNothingListening(t *testing.T) {
	path := writeEndpointConfig(t, freePort(t))
	out := runStatus(t, "--config", path)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got:\n%s", out)
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 2 || fields[1] != "no" {
		t.Fatalf("expected alive=no, got %q", lines[1])
	}
}

func TestStatusReportsListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	path := writeEndpointConfig(t, ln.Addr().(*net.TCPAddr).Port)

	out := runStatus(t, "--config", path, "--json")
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status json: %v\n%s", err, out)
	}
	if !report.Alive {
		t.Fatalf("expected alive endpoint, got %+v", report)
	}
	if report.Process != nil && report.Process.PID != os.Getpid() {
		t.Fatalf("expected listener to be this test process, got pid %d", report.Process.PID)
	}
}
