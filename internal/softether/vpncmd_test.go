package softether

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeVPNCmd writes a shell script standing in for vpncmd. The script records
// its arguments and stdin next to itself before running body.
func fakeVPNCmd(t *testing.T, body string) (path, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	dir = t.TempDir()
	path = filepath.Join(dir, "vpncmd")
	script := "#!/bin/sh\n" +
		"for a in \"$@\"; do printf '%s\\n' \"$a\"; done > '" + filepath.Join(dir, "args") + "'\n" +
		"cat > '" + filepath.Join(dir, "stdin") + "'\n" +
		body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake vpncmd: %v", err)
	}
	return path, dir
}

func TestInvokerSuccess(t *testing.T) {
	path, dir := fakeVPNCmd(t, "printf 'Item,Value\\nSessions,4\\n'")
	inv := NewInvoker(path, "vpn.example.com:443", 0)

	out, err := inv.Invoke(context.Background(), "DEFAULT", "secret", CommandStatusGet)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if string(out) != "Item,Value\nSessions,4\n" {
		t.Fatalf("unexpected stdout %q", out)
	}

	args, err := os.ReadFile(filepath.Join(dir, "args"))
	if err != nil {
		t.Fatalf("read args: %v", err)
	}
	want := strings.Join(Args("vpn.example.com:443", "DEFAULT", "secret", CommandStatusGet), "\n") + "\n"
	if string(args) != want {
		t.Fatalf("args = %q, want %q", args, want)
	}

	stdin, err := os.ReadFile(filepath.Join(dir, "stdin"))
	if err != nil {
		t.Fatalf("read stdin: %v", err)
	}
	if string(stdin) != "\x04" {
		t.Fatalf("stdin = %q, want EOT byte", stdin)
	}
}

func TestArgs(t *testing.T) {
	got := strings.Join(Args("localhost", "HUB", "pw", CommandSessionList), " ")
	want := "localhost /SERVER /ADMINHUB:HUB /PASSWORD:pw /CSV /CMD SessionList"
	if got != want {
		t.Fatalf("Args = %q, want %q", got, want)
	}
}

func TestInvokerToolFailed(t *testing.T) {
	path, _ := fakeVPNCmd(t, "echo 'Error occurred. (Error code: 9)'; exit 1")
	inv := NewInvoker(path, "localhost", 0)

	_, err := inv.Invoke(context.Background(), "HUB", "bad", CommandSessionList)
	if !errors.Is(err, ErrToolFailed) {
		t.Fatalf("expected ErrToolFailed, got %v", err)
	}
	var invokeErr *InvokeError
	if !errors.As(err, &invokeErr) {
		t.Fatalf("expected InvokeError, got %T", err)
	}
	if invokeErr.Output != "Error occurred. (Error code: 9)\n" {
		t.Fatalf("Output = %q", invokeErr.Output)
	}
	if invokeErr.Hub != "HUB" || invokeErr.Command != "SessionList" {
		t.Fatalf("unexpected error context: %+v", invokeErr)
	}
	if !strings.Contains(err.Error(), "Error code: 9") {
		t.Fatalf("error text lacks tool output: %q", err.Error())
	}
}

func TestInvokerEmptySuccess(t *testing.T) {
	path, _ := fakeVPNCmd(t, "exit 0")
	out, err := NewInvoker(path, "localhost", 0).Invoke(context.Background(), "HUB", "", CommandStatusGet)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestInvokerTimeout(t *testing.T) {
	path, _ := fakeVPNCmd(t, "exec sleep 5")
	inv := NewInvoker(path, "localhost", 100*time.Millisecond)

	start := time.Now()
	_, err := inv.Invoke(context.Background(), "HUB", "", CommandStatusGet)
	if !errors.Is(err, ErrToolTimeout) {
		t.Fatalf("expected ErrToolTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestInvokerCanceled(t *testing.T) {
	path, _ := fakeVPNCmd(t, "exec sleep 5")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewInvoker(path, "localhost", 0).Invoke(ctx, "HUB", "", CommandStatusGet)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected caller deadline, got %v", err)
	}
	if errors.Is(err, ErrToolTimeout) {
		t.Fatal("caller cancellation reported as tool timeout")
	}
}

func TestInvokerMissingBinary(t *testing.T) {
	inv := NewInvoker(filepath.Join(t.TempDir(), "missing-vpncmd"), "localhost", 0)
	_, err := inv.Invoke(context.Background(), "HUB", "", CommandStatusGet)
	var invokeErr *InvokeError
	if !errors.As(err, &invokeErr) {
		t.Fatalf("expected InvokeError, got %v", err)
	}
	if errors.Is(err, ErrToolFailed) {
		t.Fatal("missing binary reported as tool failure")
	}
}
