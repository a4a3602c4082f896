package task

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/lightflow-io/lightflow/internal/taskaction"
	"github.com/lightflow-io/lightflow/internal/taskdata"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// BashTaskOutputLine is invoked for every line a shell command writes to
// stdout or stderr.
type BashTaskOutputLine func(line string, data *taskdata.Bundle, store Store, signal Signal, ctx Context)

// BashTaskStart is invoked once the shell command's process has started.
type BashTaskStart func(pid int, data *taskdata.Bundle, store Store, signal Signal, ctx Context)

// BashTaskEnd is invoked once the shell command's process has exited.
// stdout/stderr are the command's aggregated output, populated only when
// the corresponding Aggregate flag was set.
type BashTaskEnd func(exitCode int, stdout, stderr string, data *taskdata.Bundle, store Store, signal Signal, ctx Context)

// BashTaskOptions configures a bash task. Command is the only required
// field; every other option mirrors a piece of os/exec.Cmd or a lifecycle
// hook into the running process.
type BashTaskOptions struct {
	Command string
	Dir     string
	Env     []string // "KEY=VALUE" pairs appended to the process environment
	Stdin   string

	PollInterval time.Duration // defaults to 100ms, mirrors the source's refresh_time

	AggregateStdout bool
	AggregateStderr bool

	OnStart  BashTaskStart
	OnEnd    BashTaskEnd
	OnStdout BashTaskOutputLine
	OnStderr BashTaskOutputLine
}

// NewBashTask builds a Task that runs opts.Command through the system
// shell, polling signal.IsStopped while the process runs and terminating
// it if a stop is requested. The shell expansion itself uses mvdan.cc/sh's
// parser purely to validate the command line before handing it to
// os/exec; the process is always run through the host shell so redirection,
// pipelines and globbing behave the way a user typing the command expects.
func NewBashTask(name string, opts BashTaskOptions) *Task {
	t := New(name, func(data *taskdata.Bundle, store Store, signal Signal, ctx Context) (*taskaction.Action, error) {
		if _, err := syntax.NewParser().Parse(strings.NewReader(opts.Command), name); err != nil {
			return nil, fmt.Errorf("bash task %q: invalid command: %w", name, err)
		}

		interval := opts.PollInterval
		if interval <= 0 {
			interval = 100 * time.Millisecond
		}

		cmd := exec.Command("sh", "-c", opts.Command)
		cmd.Dir = opts.Dir
		if len(opts.Env) > 0 {
			cmd.Env = expand.ListEnviron(append(os.Environ(), opts.Env...)...).Environ()
		}

		captureOutput := opts.OnStdout != nil || opts.OnStderr != nil ||
			opts.AggregateStdout || opts.AggregateStderr

		var stdoutPipe, stderrPipe io.ReadCloser
		var err error
		if captureOutput {
			if stdoutPipe, err = cmd.StdoutPipe(); err != nil {
				return nil, fmt.Errorf("bash task %q: stdout pipe: %w", name, err)
			}
			if stderrPipe, err = cmd.StderrPipe(); err != nil {
				return nil, fmt.Errorf("bash task %q: stderr pipe: %w", name, err)
			}
		}

		var stdin io.WriteCloser
		if opts.Stdin != "" {
			if stdin, err = cmd.StdinPipe(); err != nil {
				return nil, fmt.Errorf("bash task %q: stdin pipe: %w", name, err)
			}
		}

		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("bash task %q: start: %w", name, err)
		}

		if stdin != nil {
			_, _ = io.WriteString(stdin, opts.Stdin)
			_ = stdin.Close()
		}

		if opts.OnStart != nil {
			opts.OnStart(cmd.Process.Pid, data, store, signal, ctx)
		}

		var stdoutBuf, stderrBuf strings.Builder
		var wg sync.WaitGroup
		if captureOutput {
			wg.Add(2)
			go drainLines(stdoutPipe, &wg, func(line string) {
				if opts.OnStdout != nil {
					opts.OnStdout(line, data, store, signal, ctx)
				}
				if opts.AggregateStdout {
					stdoutBuf.WriteString(line)
					stdoutBuf.WriteByte('\n')
				}
			})
			go drainLines(stderrPipe, &wg, func(line string) {
				if opts.OnStderr != nil {
					opts.OnStderr(line, data, store, signal, ctx)
				}
				if opts.AggregateStderr {
					stderrBuf.WriteString(line)
					stderrBuf.WriteByte('\n')
				}
			})
		}

		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var waitErr error
	waitLoop:
		for {
			select {
			case waitErr = <-done:
				break waitLoop
			case <-ticker.C:
				if signal.IsStopped() {
					_ = cmd.Process.Kill()
				}
			}
		}

		wg.Wait()

		exitCode := 0
		if waitErr != nil {
			if exitErr, ok := waitErr.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			} else {
				return nil, fmt.Errorf("bash task %q: %w", name, waitErr)
			}
		}

		if opts.OnEnd != nil {
			opts.OnEnd(exitCode, stdoutBuf.String(), stderrBuf.String(), data, store, signal, ctx)
		}

		if exitCode != 0 {
			return nil, fmt.Errorf("bash task %q: exit code %d", name, exitCode)
		}

		return taskaction.New(data), nil
	})
	return t
}

func drainLines(r io.Reader, wg *sync.WaitGroup, handle func(line string)) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		handle(scanner.Text())
	}
}
