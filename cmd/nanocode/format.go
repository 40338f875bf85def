package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hupe1980/nanocode/agent"
	"github.com/hupe1980/nanocode/core"
	"github.com/hupe1980/nanocode/tool"
)

// ANSI styles.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	blue   = "\033[34m"
	cyan   = "\033[36m"
	green  = "\033[32m"
	yellow = "\033[33m"
	red    = "\033[31m"
)

const (
	argPreviewLen    = 50
	resultPreviewLen = 60
	maxSeparator     = 80
)

var boldMarkdown = regexp.MustCompile(`\*\*(.+?)\*\*`)

// printer renders loop progress. Hooks run on the loop goroutine while bash
// output arrives from tool goroutines, so writes are serialized.
type printer struct {
	mu       sync.Mutex
	out      io.Writer
	argOrder map[string][]string
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, argOrder: map[string][]string{}}
}

func (p *printer) setDescriptors(descs []tool.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, d := range descs {
		names := make([]string, len(d.Parameters))
		for i, param := range d.Parameters {
			names[i] = param.Name
		}

		p.argOrder[d.Name] = names
	}
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) hooks() agent.Hooks {
	return agent.Hooks{
		OnAssistantTurn: func(turn core.Content) {
			for _, part := range turn.Parts {
				if t, ok := part.(core.TextPart); ok && t.Text != "" {
					p.printf("\n%s⏺%s %s\n", cyan, reset, renderMarkdown(t.Text))
				}
			}
		},
		OnToolCall: func(call core.FunctionCall) {
			p.mu.Lock()
			preview := argPreview(p.argOrder[call.Name], call.Arguments)
			p.mu.Unlock()

			p.printf("\n%s⏺ %s%s(%s%s%s)\n", green, capitalize(call.Name), reset, dim, preview, reset)
		},
		OnToolResult: func(_ core.FunctionCall, result core.FunctionResponse) {
			p.printf("  %s⎿  %s%s\n", dim, resultPreview(responseText(result.Response)), reset)
		},
	}
}

// bashWriter receives complete lines of shell output.
func (p *printer) bashWriter() io.Writer { return bashLines{p: p} }

type bashLines struct{ p *printer }

func (b bashLines) Write(line []byte) (int, error) {
	b.p.printf("  %s│ %s%s\n", dim, strings.TrimRight(string(line), " \t\r\n"), reset)
	return len(line), nil
}

func separator() string {
	width := maxSeparator
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 && cols < width {
		width = cols
	}

	return dim + strings.Repeat("─", width) + reset
}

func renderMarkdown(text string) string {
	return boldMarkdown.ReplaceAllString(text, bold+"${1}"+reset)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	r, size := utf8.DecodeRuneInString(s)

	return strings.ToUpper(string(r)) + s[size:]
}

// argPreview shows the first argument in declaration order, truncated.
func argPreview(order []string, args map[string]any) string {
	if len(args) == 0 {
		return ""
	}

	for _, name := range order {
		if v, ok := args[name]; ok {
			return truncate(fmt.Sprint(v), argPreviewLen)
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return truncate(fmt.Sprint(args[keys[0]]), argPreviewLen)
}

// resultPreview shows the first line of a result, noting how many lines follow.
func resultPreview(result string) string {
	lines := strings.Split(result, "\n")
	preview := truncate(lines[0], resultPreviewLen)

	switch {
	case len(lines) > 1:
		preview += fmt.Sprintf(" ... +%d lines", len(lines)-1)
	case utf8.RuneCountInString(lines[0]) > resultPreviewLen:
		preview += "..."
	}

	return preview
}

func responseText(v any) string {
	switch r := v.(type) {
	case string:
		return r
	case nil:
		return ""
	default:
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Sprint(r)
		}

		return string(raw)
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}
