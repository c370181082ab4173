// Package testutil provides shared test infrastructure for e2e tests.
// Provides a subprocess-based server fixture that builds and runs the actual
// server binary, starts once via sync.Once, and supports cleanup in TestMain.
package testutil

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/kuitang/content-e2e/internal/config"
	"github.com/kuitang/content-e2e/internal/repoclient"
)

// =============================================================================
// Server Fixture: Subprocess-based server that starts once
// =============================================================================

var (
	testServer  *ServerFixture
	testOnce    sync.Once
	testCleanup func()
	testMu      sync.Mutex
)

// ServerFixture holds the running server instance
type ServerFixture struct {
	cmd        *exec.Cmd
	BaseURL    string
	Port       int
	Logs       *LogCapture
	DataDir    string
	ProjectDir string
	cancel     context.CancelFunc
}

// AdminClient returns a REST client for the bootstrap administrator. The
// server runs in --test mode, where the admin password equals the id.
func (f *ServerFixture) AdminClient() *repoclient.Client {
	return repoclient.New(f.BaseURL, config.DefaultAdminID, config.DefaultAdminID)
}

// LogCapture captures server logs for inspection
type LogCapture struct {
	mu    sync.RWMutex
	lines []string
}

func (l *LogCapture) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range strings.Split(string(p), "\n") {
		if line != "" {
			l.lines = append(l.lines, line)
		}
	}
	return len(p), nil
}

// Lines returns a copy of all captured log lines
func (l *LogCapture) Lines() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cp := make([]string, len(l.lines))
	copy(cp, l.lines)
	return cp
}

// FindLine returns the first captured line containing every one of parts.
func (l *LogCapture) FindLine(parts ...string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
next:
	for _, line := range l.lines {
		for _, p := range parts {
			if !strings.Contains(line, p) {
				continue next
			}
		}
		return line, true
	}
	return "", false
}

// WaitForLine polls FindLine until it succeeds or timeout passes.
func (l *LogCapture) WaitForLine(timeout time.Duration, parts ...string) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if line, ok := l.FindLine(parts...); ok {
			return line, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return "", fmt.Errorf("timeout waiting for log line containing %q", parts)
}

// GetServer returns the shared server fixture, starting it if needed.
// Uses sync.Once to ensure server is started only once across all tests.
func GetServer(t testing.TB) *ServerFixture {
	testMu.Lock()
	defer testMu.Unlock()

	testOnce.Do(func() {
		testServer, testCleanup = startServer(t)
	})
	if testServer == nil {
		t.Fatal("server fixture failed to start in an earlier test")
	}
	return testServer
}

// Cleanup stops the server. Call from TestMain after m.Run().
func Cleanup() {
	testMu.Lock()
	defer testMu.Unlock()
	if testCleanup != nil {
		testCleanup()
		testCleanup = nil
	}
}

func startServer(t testing.TB) (*ServerFixture, func()) {
	projectRoot := FindProjectRoot()

	dataDir, err := os.MkdirTemp("", "e2e-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	// SQLCipher needs cgo.
	binary := filepath.Join(dataDir, "server")
	buildCmd := exec.Command("go", "build", "-o", binary, "./cmd/server")
	buildCmd.Dir = projectRoot
	buildCmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	if out, err := buildCmd.CombinedOutput(); err != nil {
		t.Fatalf("Build failed: %v\n%s", err, out)
	}

	port := findFreePort()
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	logs := &LogCapture{}
	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, binary, "--test", fmt.Sprintf("--addr=127.0.0.1:%d", port))
	cmd.Dir = dataDir
	cmd.Env = append(os.Environ(),
		"BASE_URL="+baseURL,
		"LOG_LEVEL=debug",
		// High enough that only the dedicated rate-limit tests hit it.
		"RATE_LIMIT_RPS=1000",
		"RATE_LIMIT_BURST=1000",
	)

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	if err := cmd.Start(); err != nil {
		cancel()
		t.Fatalf("Failed to start server: %v", err)
	}

	capture := func(prefix string, scanner *bufio.Scanner) {
		for scanner.Scan() {
			line := scanner.Text()
			logs.Write([]byte(line + "\n"))
			if os.Getenv("E2E_TEST_DEBUG_LOGS") != "" {
				fmt.Println(prefix, line)
			}
		}
	}
	go capture("[SERVER]", bufio.NewScanner(stdout))
	go capture("[SERVER-ERR]", bufio.NewScanner(stderr))

	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)
	ready := false
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			t.Logf("Server started on port %d", port)
			ready = true
			break
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ready {
		cancel()
		t.Fatalf("Server did not become ready. Logs:\n%s", strings.Join(logs.Lines(), "\n"))
	}

	fixture := &ServerFixture{
		cmd:        cmd,
		BaseURL:    baseURL,
		Port:       port,
		Logs:       logs,
		DataDir:    dataDir,
		ProjectDir: projectRoot,
		cancel:     cancel,
	}

	cleanup := func() {
		_ = cmd.Process.Signal(syscall.SIGTERM)
		done := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
		}
		cancel()
		os.RemoveAll(dataDir)
	}

	return fixture, cleanup
}

// FindProjectRoot locates the project root by finding go.mod
func FindProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("could not find project root")
		}
		dir = parent
	}
}

func findFreePort() int {
	l, _ := net.Listen("tcp", "127.0.0.1:0")
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// =============================================================================
// HTTP Client Helpers
// =============================================================================

// NewHTTPClient creates an HTTP client with cookie jar and no-redirect policy
func NewHTTPClient() *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Timeout: 30 * time.Second,
		Jar:     jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
