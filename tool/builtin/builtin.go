package builtin

import (
	"io"
	"path/filepath"
	"time"

	"github.com/hupe1980/nanocode/tool"
)

// DefaultBashTimeout bounds every shell command.
const DefaultBashTimeout = 30 * time.Second

const (
	maxGrepHits    = 50
	noMatches      = "none"
	emptyOutput    = "(empty)"
	writeOK        = "ok"
	timeoutMessage = "(timed out after %s)"
)

// Options configures the built-in tools.
type Options struct {
	// WorkDir is the base for relative paths. Empty means the process working directory.
	WorkDir string
	// BashTimeout bounds shell commands (default 30s).
	BashTimeout time.Duration
	// BashOutput receives shell output line by line while the command runs. May be nil.
	BashOutput io.Writer
}

// All returns the built-in tools in presentation order.
func All(optFns ...func(o *Options)) []tool.Tool {
	opts := Options{BashTimeout: DefaultBashTimeout}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.BashTimeout <= 0 {
		opts.BashTimeout = DefaultBashTimeout
	}

	return []tool.Tool{
		NewRead(opts),
		NewWrite(opts),
		NewEdit(opts),
		NewGlob(opts),
		NewGrep(opts),
		NewBash(opts),
	}
}

// resolve makes p absolute relative to the working directory.
func (o Options) resolve(p string) string {
	if p == "" {
		p = "."
	}

	if filepath.IsAbs(p) || o.WorkDir == "" {
		return p
	}

	return filepath.Join(o.WorkDir, p)
}
