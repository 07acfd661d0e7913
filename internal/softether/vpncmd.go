package softether

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Command is a vpncmd server-mode subcommand.
type Command string

const (
	CommandStatusGet   Command = "StatusGet"
	CommandSessionList Command = "SessionList"
)

// endOfTransmission is written to vpncmd's stdin so its password prompt
// returns immediately; the password itself travels in /PASSWORD.
const endOfTransmission = 0x04

// Invoker runs vpncmd against one VPN server.
type Invoker struct {
	path    string
	server  string
	timeout time.Duration
}

// NewInvoker returns an Invoker for the vpncmd binary at path. A timeout of
// zero lets every run take as long as vpncmd needs.
func NewInvoker(path, server string, timeout time.Duration) *Invoker {
	if timeout < 0 {
		timeout = 0
	}
	return &Invoker{path: path, server: server, timeout: timeout}
}

// Args builds the vpncmd argument list for one hub-scoped CSV query.
func Args(server, hub, password string, cmd Command) []string {
	return []string{
		server,
		"/SERVER",
		"/ADMINHUB:" + hub,
		"/PASSWORD:" + password,
		"/CSV",
		"/CMD",
		string(cmd),
	}
}

// Invoke runs cmd for hub and returns vpncmd's stdout.
func (i *Invoker) Invoke(ctx context.Context, hub, password string, cmd Command) ([]byte, error) {
	runCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, i.path, Args(i.server, hub, password, cmd)...)
	c.WaitDelay = time.Second
	var stdout bytes.Buffer
	c.Stdout = &stdout

	stdin, err := c.StdinPipe()
	if err != nil {
		return nil, &InvokeError{Hub: hub, Command: string(cmd), Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	if err := c.Start(); err != nil {
		return nil, &InvokeError{Hub: hub, Command: string(cmd), Err: fmt.Errorf("start %s: %w", i.path, err)}
	}

	_, writeErr := stdin.Write([]byte{endOfTransmission})
	_ = stdin.Close()
	waitErr := c.Wait()

	if waitErr != nil {
		switch {
		case ctx.Err() != nil:
			return nil, &InvokeError{Hub: hub, Command: string(cmd), Err: ctx.Err()}
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return nil, &InvokeError{Hub: hub, Command: string(cmd), Err: fmt.Errorf("%w after %s", ErrToolTimeout, i.timeout)}
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, &InvokeError{
				Hub:     hub,
				Command: string(cmd),
				Output:  stdout.String(),
				Err:     fmt.Errorf("%w: exit status %d", ErrToolFailed, exitErr.ExitCode()),
			}
		}
		return nil, &InvokeError{Hub: hub, Command: string(cmd), Err: fmt.Errorf("wait: %w", waitErr)}
	}
	if writeErr != nil && !errors.Is(writeErr, syscall.EPIPE) && !errors.Is(writeErr, os.ErrClosed) {
		return nil, &InvokeError{Hub: hub, Command: string(cmd), Err: fmt.Errorf("write stdin: %w", writeErr)}
	}
	return stdout.Bytes(), nil
}
