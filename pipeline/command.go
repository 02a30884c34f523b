package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command is one invocation of an external tool.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// String renders the command the way it would be typed in a shell.
func (c Command) String() string {
	parts := []string{c.Name}
	for _, a := range c.Args {
		parts = append(parts, shellQuote(a))
	}

	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"$`\\*?;&|<>()") {
		return s
	}

	if k, v, ok := strings.Cut(s, "="); ok && !strings.ContainsAny(k, " '") {
		return k + "=" + shellQuote(v)
	}

	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ExternalToolError reports a command that exited unsuccessfully.
type ExternalToolError struct {
	Command  Command
	ExitCode int

	// Output holds the combined stdout and stderr of the command. It is
	// empty when the output was streamed.
	Output []byte
}

func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if len(e.Output) > 0 {
		msg += "\n" + string(e.Output)
	}

	return msg
}

// Executor runs external commands to completion.
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// ProcessExecutor runs commands as child processes. With Verbose set, output
// streams to Stdout and Stderr as it is produced; otherwise it is captured
// and only surfaces in an ExternalToolError.
type ProcessExecutor struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewProcessExecutor creates a ProcessExecutor streaming to the process
// output when verbose.
func NewProcessExecutor(verbose bool) *ProcessExecutor {
	return &ProcessExecutor{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Execute runs the command and waits for it to exit.
func (e *ProcessExecutor) Execute(ctx context.Context, cmd Command) error {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var captured bytes.Buffer
	if e.Verbose {
		c.Stdout = e.Stdout
		c.Stderr = e.Stderr
	} else {
		c.Stdout = &captured
		c.Stderr = &captured
	}

	err := c.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExternalToolError{
			Command:  cmd,
			ExitCode: exitErr.ExitCode(),
			Output:   captured.Bytes(),
		}
	}

	return fmt.Errorf("running %s: %w", cmd, err)
}
