package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

const stderrTailLines = 20

// ToolError reports a failed ffmpeg or ffprobe invocation.
type ToolError struct {
	Tool   string
	Err    error
	Stderr string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Stderr)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

func run(ctx context.Context, binary string, args []string, stdout io.Writer) error {
	return runStreaming(ctx, binary, args, stdout, nil)
}

// runStreaming executes binary and hands every stdout line to onLine when it
// is set, otherwise stdout is copied to the writer (which may be nil).
func runStreaming(ctx context.Context, binary string, args []string, stdout io.Writer, onLine func(string)) error {
	tool := filepath.Base(binary)
	cmd := commandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	var pipe io.ReadCloser
	if onLine != nil {
		var err error
		pipe, err = cmd.StdoutPipe()
		if err != nil {
			return &ToolError{Tool: tool, Err: err}
		}
	} else {
		cmd.Stdout = stdout
	}

	if err := cmd.Start(); err != nil {
		return &ToolError{Tool: tool, Err: err}
	}

	if pipe != nil {
		scanner := bufio.NewScanner(pipe)
		for scanner.Scan() {
			onLine(scanner.Text())
		}
		_, _ = io.Copy(io.Discard, pipe)
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", tool, ctxErr)
		}
		return &ToolError{Tool: tool, Err: err, Stderr: tail(stderr.String(), stderrTailLines)}
	}
	return nil
}

func verifyOutput(tool, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ToolError{Tool: tool, Err: fmt.Errorf("produced no output at %s", path)}
		}
		return &ToolError{Tool: tool, Err: err}
	}
	if info.IsDir() || info.Size() == 0 {
		return &ToolError{Tool: tool, Err: fmt.Errorf("produced an empty output at %s", path)}
	}
	return nil
}

func tail(output string, lines int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "\n")
}
