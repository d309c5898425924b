package idb

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/mobile-next/idbtap/utils"
)

// DefaultStartTimeout bounds how long Spawn waits for the companion to
// report its port.
const DefaultStartTimeout = 30 * time.Second

// Process is an idb_companion started by idbtap.
type Process struct {
	UDID    string
	Port    int
	Address string

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	exited chan struct{}
}

type startupReport struct {
	GRPCPort int `json:"grpc_port"`
}

// Spawn starts `path --udid udid --grpc-port 0` and waits for the JSON line
// the companion prints once it is listening. The process runs in its own
// process group and lives until Stop.
func Spawn(ctx context.Context, path, udid string, timeout time.Duration) (*Process, error) {
	if udid == "" {
		return nil, fmt.Errorf("a target udid is required to spawn idb_companion")
	}
	if path == "" {
		path = "idb_companion"
	}
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}

	binary, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to find idb_companion: %w", err)
	}

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, binary, "--udid", udid, "--grpc-port", "0")
	utils.ConfigureDetachedProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to capture companion output: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start idb_companion: %w", err)
	}
	utils.Verbose("idb_companion started with PID: %d", cmd.Process.Pid)

	p := &Process{UDID: udid, cmd: cmd, cancel: cancel, exited: make(chan struct{})}

	ports := make(chan int, 1)
	errs := make(chan error, 1)

	// stdout is read to EOF before Wait, which closes the pipe
	go func() {
		port, err := readPort(stdout)
		if err != nil {
			errs <- err
		} else {
			ports <- port
		}
		// keep the pipe drained so the companion never blocks on stdout
		_, _ = io.Copy(io.Discard, stdout)
		_ = cmd.Wait()
		close(p.exited)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case port := <-ports:
		p.Port = port
		p.Address = fmt.Sprintf("localhost:%d", port)
		utils.Verbose("idb_companion for %s listening on %s", udid, p.Address)
		return p, nil
	case err := <-errs:
		_ = p.Stop()
		return nil, fmt.Errorf("idb_companion exited before reporting its port: %w", err)
	case <-timer.C:
		_ = p.Stop()
		return nil, fmt.Errorf("timed out after %s waiting for idb_companion to start", timeout)
	case <-ctx.Done():
		_ = p.Stop()
		return nil, ctx.Err()
	}
}

// readPort scans companion output for the startup report. Lines that are
// not JSON, or JSON without a port, are skipped.
func readPort(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var report startupReport
		if err := json.Unmarshal(scanner.Bytes(), &report); err != nil {
			continue
		}
		if report.GRPCPort > 0 {
			return report.GRPCPort, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading idb_companion output: %w", err)
	}
	return 0, fmt.Errorf("idb_companion did not report a grpc port")
}

// PID returns the companion's process id, or 0 once stopped.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		return p.cmd.Process.Pid
	}
	return 0
}

// Stop kills the companion and waits for it to exit.
func (p *Process) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		return nil
	}

	utils.Verbose("Stopping idb_companion with PID: %d", p.cmd.Process.Pid)
	p.cancel()

	select {
	case <-p.exited:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("idb_companion %d did not exit", p.cmd.Process.Pid)
	}

	p.cmd = nil
	return nil
}
