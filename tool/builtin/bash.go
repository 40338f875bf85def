package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/nanocode/tool"
)

// NewBash returns the bash tool. stdout and stderr are merged; the command is
// killed after opts.BashTimeout and the partial output is returned with a
// timeout note.
func NewBash(opts Options) *tool.FunctionTool {
	timeout := opts.BashTimeout
	if timeout <= 0 {
		timeout = DefaultBashTimeout
	}

	return tool.NewFunctionTool(
		"bash",
		"Run shell command",
		[]tool.Parameter{
			tool.RequiredParam("cmd", tool.TypeString, "Command line passed to the shell"),
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := shellCommand(ctx, tool.StringArg(args, "cmd", ""))
			cmd.Dir = opts.WorkDir
			cmd.WaitDelay = time.Second

			out := &lineStreamer{dst: opts.BashOutput}
			cmd.Stdout = out
			cmd.Stderr = out

			runErr := cmd.Run()
			out.flush()

			result := strings.TrimSpace(out.String())

			switch {
			case errors.Is(ctx.Err(), context.DeadlineExceeded):
				result += "\n" + fmt.Sprintf(timeoutMessage, timeout)
			case runErr != nil:
				var exitErr *exec.ExitError
				if !errors.As(runErr, &exitErr) {
					return nil, runErr
				}

				result += fmt.Sprintf("\n(exit code %d)", exitErr.ExitCode())
			}

			result = strings.TrimSpace(result)
			if result == "" {
				return emptyOutput, nil
			}

			return result, nil
		},
	)
}

func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", line) // nolint: gosec
	}

	return exec.CommandContext(ctx, "sh", "-c", line) // nolint: gosec
}

// lineStreamer captures output and forwards complete lines to dst as they arrive.
type lineStreamer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	pending []byte
	dst     io.Writer
}

func (s *lineStreamer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Write(p)

	if s.dst == nil {
		return len(p), nil
	}

	s.pending = append(s.pending, p...)

	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			break
		}

		_, _ = s.dst.Write(s.pending[:i+1])
		s.pending = s.pending[i+1:]
	}

	return len(p), nil
}

func (s *lineStreamer) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dst != nil && len(s.pending) > 0 {
		_, _ = s.dst.Write(append(s.pending, '\n'))
		s.pending = nil
	}
}

func (s *lineStreamer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buf.String()
}
