package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/nanocode/tool"
)

// NewRead returns the read tool. Lines are numbered from one and may be windowed
// with offset (zero based) and limit.
func NewRead(opts Options) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"read",
		"Read file with line numbers (file path, not directory)",
		[]tool.Parameter{
			tool.RequiredParam("path", tool.TypeString, "File to read"),
			tool.OptionalParam("offset", tool.TypeInteger, "Zero based line to start at"),
			tool.OptionalParam("limit", tool.TypeInteger, "Maximum number of lines"),
		},
		func(_ context.Context, args map[string]any) (any, error) {
			data, err := os.ReadFile(opts.resolve(tool.StringArg(args, "path", "")))
			if err != nil {
				return nil, err
			}

			lines := splitLinesKeepEnds(string(data))

			offset := tool.IntArg(args, "offset", 0)
			if offset < 0 {
				offset = 0
			}

			if offset > len(lines) {
				offset = len(lines)
			}

			limit := tool.IntArg(args, "limit", len(lines))
			end := len(lines)

			if limit >= 0 && offset+limit < end {
				end = offset + limit
			}

			var b strings.Builder
			for i, line := range lines[offset:end] {
				fmt.Fprintf(&b, "%4d| %s", offset+i+1, line)
			}

			return b.String(), nil
		},
	)
}

// NewWrite returns the write tool. The file is created or truncated.
func NewWrite(opts Options) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"write",
		"Write content to file",
		[]tool.Parameter{
			tool.RequiredParam("path", tool.TypeString, "File to write"),
			tool.RequiredParam("content", tool.TypeString, "Full file content"),
		},
		func(_ context.Context, args map[string]any) (any, error) {
			path := opts.resolve(tool.StringArg(args, "path", ""))
			if err := os.WriteFile(path, []byte(tool.StringArg(args, "content", "")), 0o644); err != nil { // nolint: gosec
				return nil, err
			}

			return writeOK, nil
		},
	)
}

// NewEdit returns the edit tool. old must occur exactly once unless all is set.
func NewEdit(opts Options) *tool.FunctionTool {
	return tool.NewFunctionTool(
		"edit",
		"Replace old with new in file (old must be unique unless all=true)",
		[]tool.Parameter{
			tool.RequiredParam("path", tool.TypeString, "File to edit"),
			tool.RequiredParam("old", tool.TypeString, "Text to replace"),
			tool.RequiredParam("new", tool.TypeString, "Replacement text"),
			tool.OptionalParam("all", tool.TypeBoolean, "Replace every occurrence"),
		},
		func(_ context.Context, args map[string]any) (any, error) {
			path := opts.resolve(tool.StringArg(args, "path", ""))

			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}

			text := string(data)
			oldText := tool.StringArg(args, "old", "")
			newText := tool.StringArg(args, "new", "")
			all := tool.BoolArg(args, "all", false)

			if oldText == "" {
				return nil, errors.New("old must not be empty")
			}

			count := strings.Count(text, oldText)
			if count == 0 {
				return nil, errors.New("old_string not found")
			}

			if !all && count > 1 {
				return nil, fmt.Errorf("old_string appears %d times, must be unique (use all=true)", count)
			}

			n := 1
			if all {
				n = -1
			}

			if err := os.WriteFile(path, []byte(strings.Replace(text, oldText, newText, n)), 0o644); err != nil { // nolint: gosec
				return nil, err
			}

			return writeOK, nil
		},
	)
}

func splitLinesKeepEnds(s string) []string {
	if s == "" {
		return nil
	}

	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
