package builtin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hupe1980/nanocode/tool"
)

var errHitLimit = errors.New("hit limit reached")

// NewGlob returns the glob tool. Patterns support ** and results are sorted by
// modification time, newest first.
func NewGlob(opts Options) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"glob",
		"Find files by pattern, sorted by mtime",
		[]tool.Parameter{
			tool.RequiredParam("pat", tool.TypeString, "Glob pattern, ** matches directories recursively"),
			tool.OptionalParam("path", tool.TypeString, "Directory to search (default .)"),
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			root := tool.StringArg(args, "path", ".")
			pattern := tool.StringArg(args, "pat", "")

			if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
				return nil, fmt.Errorf("invalid glob pattern %q", pattern)
			}

			matches, err := doublestar.Glob(os.DirFS(opts.resolve(root)), filepath.ToSlash(pattern))
			if err != nil {
				return nil, err
			}

			type entry struct {
				path  string
				mtime int64
			}

			entries := make([]entry, 0, len(matches))
			for _, m := range matches {
				if err := ctx.Err(); err != nil {
					return nil, err
				}

				e := entry{path: filepath.Join(root, filepath.FromSlash(m))}

				if info, err := os.Stat(opts.resolve(e.path)); err == nil && info.Mode().IsRegular() {
					e.mtime = info.ModTime().UnixNano()
				}

				entries = append(entries, e)
			}

			sort.SliceStable(entries, func(i, j int) bool { return entries[i].mtime > entries[j].mtime })

			if len(entries) == 0 {
				return noMatches, nil
			}

			paths := make([]string, len(entries))
			for i, e := range entries {
				paths[i] = e.path
			}

			return strings.Join(paths, "\n"), nil
		},
	)
}

// NewGrep returns the grep tool. At most 50 hits are reported as path:line:text.
// Unreadable files are skipped.
func NewGrep(opts Options) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"grep",
		"Search files for regex pattern",
		[]tool.Parameter{
			tool.RequiredParam("pat", tool.TypeString, "Regular expression"),
			tool.OptionalParam("path", tool.TypeString, "Directory to search (default .)"),
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			re, err := regexp.Compile(tool.StringArg(args, "pat", ""))
			if err != nil {
				return nil, err
			}

			root := tool.StringArg(args, "path", ".")
			fsys := os.DirFS(opts.resolve(root))

			hits := make([]string, 0, maxGrepHits)

			walkErr := doublestar.GlobWalk(fsys, "**", func(p string, d fs.DirEntry) error {
				if err := ctx.Err(); err != nil {
					return err
				}

				if len(hits) >= maxGrepHits {
					return errHitLimit
				}

				if d.IsDir() {
					return nil
				}

				hits = grepFile(fsys, p, filepath.Join(root, filepath.FromSlash(p)), re, hits)

				return nil
			})
			if walkErr != nil && !errors.Is(walkErr, errHitLimit) {
				return nil, walkErr
			}

			if len(hits) == 0 {
				return noMatches, nil
			}

			return strings.Join(hits, "\n"), nil
		},
	)
}

func grepFile(fsys fs.FS, name, display string, re *regexp.Regexp, hits []string) []string {
	f, err := fsys.Open(name)
	if err != nil {
		return hits
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() && len(hits) < maxGrepHits {
		lineNum++

		line := scanner.Text()
		if re.MatchString(line) {
			hits = append(hits, fmt.Sprintf("%s:%d:%s", display, lineNum, strings.TrimRight(line, " \t\r")))
		}
	}

	return hits
}
