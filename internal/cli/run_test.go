package cli

import (
	"bytes"
	stdcontext "context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/Paintersrp/warden/internal/config"
	"github.com/Paintersrp/warden/internal/tray"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func loadRunConfig(t *testing.T, lines ...string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warden.yaml")
	if err := os.WriteFile(path, []byte(configManifest(lines...)), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestRunLaunchesAndStopsOnWindowDestroyed(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("relies on the sleep binary")
	}

	cfg := loadRunConfig(t,
		"endpoint:",
		fmt.Sprintf("  port: %d", freePort(t)),
		"probe:",
		"  timeout: 200ms",
		"  readyTimeout: 0s",
		"companion:",
		"  primary: warden-missing-interpreter",
		"  fallback: sleep",
		"  args: [\"30\"]",
		"logging:",
		"  level: debug",
		"  format: json",
		"  file: \"-\"",
	)

	signals := make(chan os.Signal, 1)
	setupDone := make(chan struct{})
	shell := &hookedShell{
		Shell:   tray.NewHeadless(nil, tray.WithSignals(signals)),
		onSetup: func() { close(setupDone) },
	}

	stderr := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- runSupervisor(stdcontext.Background(), cfg, runOptions{stderr: stderr, shell: shell})
	}()

	select {
	case <-setupDone:
	case <-time.After(5 * time.Second):
		t.Fatalf("shell setup never ran")
	}
	signals <- syscall.SIGHUP

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after window destroyed")
	}

	logs := stderr.String()
	for _, want := range []string{
		"companion started with fallback command",
		"companion launched",
		`"trigger":"window_destroyed"`,
		`"run":"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("expected %q in logs:\n%s", want, logs)
		}
	}
	if strings.Count(logs, `"msg":"companion stopped"`) != 1 {
		t.Fatalf("expected exactly one stop, logs:\n%s", logs)
	}
}

func TestRunDoesNotLaunchWhenEndpointAnswers(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	cfg := loadRunConfig(t,
		"endpoint:",
		fmt.Sprintf("  port: %d", ln.Addr().(*net.TCPAddr).Port),
		"companion:",
		"  primary: warden-must-not-run",
		"logging:",
		"  format: json",
		"  file: \"-\"",
	)

	ctx, cancel := stdcontext.WithCancel(stdcontext.Background())
	shell := &hookedShell{
		Shell:   tray.NewHeadless(nil, tray.WithSignals(make(chan os.Signal))),
		onSetup: cancel,
	}
	stderr := &syncBuffer{}
	if err := runSupervisor(ctx, cfg, runOptions{stderr: stderr, shell: shell}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	logs := stderr.String()
	if !strings.Contains(logs, "companion already running; not launching another instance") {
		t.Fatalf("expected already-running log, got:\n%s", logs)
	}
	if strings.Contains(logs, "warden-must-not-run") || strings.Contains(logs, `"msg":"companion stopped"`) {
		t.Fatalf("no companion should have been launched or stopped:\n%s", logs)
	}
}

// hookedShell wraps a shell and runs onSetup after the real setup hook.
type hookedShell struct {
	tray.Shell
	onSetup func()
}

func (h *hookedShell) Run(ctx stdcontext.Context, hooks tray.Hooks) error {
	setup := hooks.OnSetup
	hooks.OnSetup = func(ctx stdcontext.Context) {
		if setup != nil {
			setup(ctx)
		}
		h.onSetup()
	}
	return h.Shell.Run(ctx, hooks)
}
